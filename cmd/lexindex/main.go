// Command lexindex ingests bilingual legislative sources into an
// embedding index and links English/French defined-term pairs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/config/file"
	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/embedding/openai"
	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/embedding/throttled"
	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/storage/postgres"
	"github.com/lexcorpus/lexindex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/lexcorpus/lexindex-cli/internal/adapters/driving/cli"
	"github.com/lexcorpus/lexindex-cli/internal/chunker"
)

func main() {
	// A .env in the working directory is a development convenience; its
	// absence is not an error.
	_ = godotenv.Load()

	// The first interrupt cancels the run context so in-flight batches
	// finish and committed work stays committed; a second one falls back
	// to the default hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetConnector(buildPipeline)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildPipeline wires the driven adapters from configuration. It runs
// lazily, only for commands that reach a backend.
func buildPipeline(ctx context.Context) (*cli.Pipeline, error) {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	connStr := cfg.GetString(file.KeyDatabaseURL)
	if connStr == "" {
		return nil, errors.New("database URL not configured; set DATABASE_URL or database.url in " + cfg.Path())
	}

	store, err := postgres.NewStore(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	cache, err := sqlite.NewProgressCache(cfg.GetString(file.KeyProgressCacheDir))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening progress cache: %w", err)
	}

	apiKey := cfg.GetString(file.KeyOpenAIAPIKey)
	if apiKey == "" {
		store.Close()
		_ = cache.Close()
		return nil, errors.New("embedding API key not configured; set OPENAI_API_KEY or embedding.api_key in " + cfg.Path())
	}

	embedder, err := openai.NewEmbeddingService(openai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString(file.KeyEmbeddingBaseURL),
		Model:   cfg.GetString(file.KeyEmbeddingModel),
	})
	if err != nil {
		store.Close()
		_ = cache.Close()
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	rps := float64(cfg.GetInt(file.KeyRequestsPerSec))
	throttledEmbedder := throttled.Wrap(embedder, rps)

	var chunkOpts []chunker.Option
	if n := cfg.GetInt(file.KeyChunkSize); n > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(n))
	}
	if n := cfg.GetInt(file.KeyChunkOverlap); n > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(n))
	}
	build := chunker.New(chunkOpts...)

	return &cli.Pipeline{
		Reader:   store.SourceReader(),
		Cache:    cache,
		Store:    store.ResourceStore(),
		Terms:    store.TermStore(),
		Embedder: throttledEmbedder,
		Config:   cfg,
		Build:    build.Build,
		Close: func() {
			_ = throttledEmbedder.Close()
			_ = cache.Close()
			store.Close()
		},
	}, nil
}
