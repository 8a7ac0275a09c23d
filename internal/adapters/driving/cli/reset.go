package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset sources...",
	Short: "Delete every written resource for the given source types",
	Long: `Removes all resources and their embeddings for the named source types
from the durable store, then clears the progress cache so later runs do
not trust entries for rows that no longer exist. Re-ingesting rebuilds
everything; source tables are never touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	sourceTypes, err := parseSourceTypes(args)
	if err != nil {
		return err
	}

	for _, sourceType := range sourceTypes {
		n, err := p.Store.DeleteBySourceType(ctx, sourceType)
		if err != nil {
			return fmt.Errorf("deleting %s resources: %w", sourceType, err)
		}
		cmd.Printf("Deleted %d %s resources.\n", n, sourceType)
	}

	// Stale cache entries would make later cache-check runs skip rows
	// whose resources were just deleted.
	if err := p.Cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	cmd.Println("Progress cache cleared.")
	return nil
}
