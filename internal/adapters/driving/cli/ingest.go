package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/services"
)

var (
	ingestSources     []string
	ingestSession     string
	ingestResume      string
	ingestSkip        bool
	ingestDryRun      bool
	ingestLimit       int
	ingestPageSize    int
	ingestBatchSize   int
	ingestConcurrency int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed and index source rows",
	Long: `Reads source rows in pages, splits them into chunks, embeds the
chunks in batches and writes the results to the resource store. Runs are
idempotent and resumable: re-running after an interruption continues
where the previous run stopped.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil,
		"source types to ingest (act,regulation,debate); default all")
	ingestCmd.Flags().StringVar(&ingestSession, "session", "",
		"restrict debates to one parliamentary session")
	ingestCmd.Flags().StringVar(&ingestResume, "resume", domain.ResumeFullCursor.String(),
		"resume strategy: full-cursor or cache-check")
	ingestCmd.Flags().BoolVar(&ingestSkip, "skip-existing", false,
		"skip chunks already recorded in the progress cache")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false,
		"count work without embedding or writing")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0,
		"cap source rows per source type (0 = unlimited)")
	ingestCmd.Flags().IntVar(&ingestPageSize, "page-size", 0,
		"source page size")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0,
		"chunks per embedding API call")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0,
		"simultaneous embedding calls")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	sourceTypes, err := parseSourceTypes(ingestSources)
	if err != nil {
		return err
	}

	// A session filter narrows the row set, which makes cursor positions
	// from earlier unfiltered runs meaningless. Switch the default
	// strategy rather than failing, but respect an explicit flag.
	resumeFlag := ingestResume
	if ingestSession != "" && !cmd.Flags().Changed("resume") {
		resumeFlag = domain.ResumeCacheCheck.String()
	}
	resumeMode, err := domain.ParseResumeMode(resumeFlag)
	if err != nil {
		return err
	}

	batcher := services.NewBatcher(p.Embedder, services.BatcherConfig{
		BatchSize:   ingestBatchSize,
		Concurrency: ingestConcurrency,
	}, nil)
	ingestor := services.NewIngestor(p.Reader, p.Cache, p.Store, batcher, p.Build)

	stats, err := ingestor.Run(ctx, services.IngestConfig{
		SourceTypes:  sourceTypes,
		Filter:       ingestSession,
		ResumeMode:   resumeMode,
		SkipExisting: ingestSkip,
		DryRun:       ingestDryRun,
		Limit:        ingestLimit,
		PageSize:     ingestPageSize,
	})
	if stats != nil {
		printIngestStats(cmd, stats)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func parseSourceTypes(names []string) ([]domain.SourceType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]domain.SourceType, 0, len(names))
	for _, name := range names {
		st, err := domain.ParseSourceType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, st)
	}
	return types, nil
}

func printIngestStats(cmd *cobra.Command, stats *services.IngestStats) {
	if ingestDryRun {
		cmd.Printf("Rows available:     %d\n", stats.RowsAvailable)
	}
	cmd.Printf("Rows read:          %d\n", stats.RowsRead)
	cmd.Printf("Chunks built:       %d\n", stats.ChunksBuilt)
	cmd.Printf("Chunks skipped:     %d\n", stats.ChunksSkipped)
	cmd.Printf("Chunks prechecked:  %d\n", stats.ChunksPrechecked)
	cmd.Printf("Chunks embedded:    %d\n", stats.ChunksEmbedded)
	cmd.Printf("Resources written:  %d\n", stats.ResourcesWritten)
	if stats.CacheResyncs > 0 {
		cmd.Printf("Cache resyncs:      %d\n", stats.CacheResyncs)
	}
	if stats.Report != nil && stats.Report.Total() > 0 {
		cmd.Printf("Per-item errors:    %d\n", stats.Report.Total())
	}
}
