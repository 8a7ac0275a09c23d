package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/services"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the progress cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached key counts against the durable store",
	RunE:  runCacheStats,
}

var cacheResyncCmd = &cobra.Command{
	Use:   "resync [sources...]",
	Short: "Rebuild the progress cache from the durable store",
	Long: `Pages every written resource key out of the durable store and marks
it in the progress cache. Use after the cache file was lost or moved.`,
	RunE: runCacheResync,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the progress cache",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheResyncCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	for _, sourceType := range domain.AllSourceTypes {
		cached, err := p.Cache.CountBySourceType(ctx, sourceType)
		if err != nil {
			return fmt.Errorf("counting cached %s keys: %w", sourceType, err)
		}
		stored, err := p.Store.CountBySourceType(ctx, sourceType)
		if err != nil {
			return fmt.Errorf("counting stored %s resources: %w", sourceType, err)
		}
		cmd.Printf("%-12s cached %d / stored %d\n", sourceType, cached, stored)
	}

	total, err := p.Cache.Total(ctx)
	if err != nil {
		return fmt.Errorf("counting cached keys: %w", err)
	}
	cmd.Printf("%-12s cached %d\n", "total", total)
	return nil
}

func runCacheResync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	sourceTypes, err := parseSourceTypes(args)
	if err != nil {
		return err
	}
	if len(sourceTypes) == 0 {
		sourceTypes = domain.AllSourceTypes
	}

	ingestor := services.NewIngestor(p.Reader, p.Cache, p.Store, nil, p.Build)
	for _, sourceType := range sourceTypes {
		cmd.Printf("Resyncing %s...\n", sourceType)
		if err := ingestor.Resync(ctx, sourceType); err != nil {
			return fmt.Errorf("resync %s: %w", sourceType, err)
		}
	}
	cmd.Println("Cache resynced.")
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	if err := p.Cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	cmd.Println("Cache cleared.")
	return nil
}
