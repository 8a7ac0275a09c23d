// Package cli implements the lexindex command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
	"github.com/lexcorpus/lexindex-cli/internal/core/services"
	"github.com/lexcorpus/lexindex-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Pipeline bundles the wired driven adapters the commands operate on.
type Pipeline struct {
	Reader   driven.SourceReader
	Cache    driven.ProgressCache
	Store    driven.ResourceStore
	Terms    driven.TermStore
	Embedder driven.EmbeddingService
	Config   driven.ConfigStore
	Build    services.ChunkBuilder

	// Close releases connections; nil when nothing to release.
	Close func()
}

// Connection state. Main injects the real connector; tests set pipeline
// directly with in-memory adapters.
var (
	connect  func(ctx context.Context) (*Pipeline, error)
	pipeline *Pipeline
)

// SetConnector installs the function that builds the pipeline on first
// use. Commands that need no backend (version, help) never trigger it.
func SetConnector(fn func(ctx context.Context) (*Pipeline, error)) {
	connect = fn
}

func getPipeline(ctx context.Context) (*Pipeline, error) {
	if pipeline != nil {
		return pipeline, nil
	}
	if connect == nil {
		return nil, errors.New("pipeline not configured")
	}

	p, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	pipeline = p
	return pipeline, nil
}

// ClosePipeline releases pipeline connections if any were opened.
func ClosePipeline() {
	if pipeline != nil && pipeline.Close != nil {
		pipeline.Close()
	}
	pipeline = nil
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "lexindex",
	Short: "Bilingual legal corpus embedding indexer",
	Long: `Lexindex ingests bilingual legislative sources into a searchable
embedding index and links English/French defined-term pairs.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging")
}

// Execute runs the root command under ctx. Cancelling the context stops
// long-running commands at their next page or batch boundary; work
// committed before the cancellation stays committed.
func Execute(ctx context.Context) error {
	defer ClosePipeline()
	return rootCmd.ExecuteContext(ctx)
}
