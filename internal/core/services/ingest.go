package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
	"github.com/lexcorpus/lexindex-cli/internal/logger"
)

// Ingestion defaults.
const (
	// DefaultPageSize is the source-table page size.
	DefaultPageSize = 200

	// DefaultResyncThreshold triggers a cache rebuild when the local
	// count falls below this fraction of the durable count. Not exact
	// match: benign races and partial prior failures leave small,
	// harmless discrepancies that must not force full rescans.
	DefaultResyncThreshold = 0.95

	// DefaultProgressEvery controls periodic progress logging.
	DefaultProgressEvery = 1000

	// ResyncPageSize is the page size for durable-store key scans.
	ResyncPageSize = 1000
)

// ReportBuildFailed is the report category for chunk builder errors.
const ReportBuildFailed = "content build failed"

// ChunkBuilder turns one source row into embeddable chunks. Structural
// extraction lives outside this core; the builder is injected.
type ChunkBuilder func(item domain.SourceItem) ([]domain.ContentChunk, error)

// IngestConfig describes one ingestion run.
type IngestConfig struct {
	// SourceTypes selects which source tables to process, in order.
	SourceTypes []domain.SourceType

	// Filter is an orthogonal scope (e.g. a parliamentary session).
	// A non-empty filter forces ResumeCacheCheck.
	Filter string

	// ResumeMode picks the resumption strategy. See domain.ValidateResume.
	ResumeMode domain.ResumeMode

	// SkipExisting consults the progress cache per chunk and skips
	// already-ingested keys.
	SkipExisting bool

	// DryRun counts work without embedding calls or writes.
	DryRun bool

	// Limit caps source rows per source type. Zero means unlimited.
	Limit int

	// PageSize is the source page size. Zero uses DefaultPageSize.
	PageSize int

	// ResyncThreshold overrides DefaultResyncThreshold when positive.
	ResyncThreshold float64

	// ProgressEvery overrides DefaultProgressEvery when positive.
	ProgressEvery int
}

func (c IngestConfig) withDefaults() IngestConfig {
	if len(c.SourceTypes) == 0 {
		c.SourceTypes = domain.AllSourceTypes
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.ResyncThreshold <= 0 {
		c.ResyncThreshold = DefaultResyncThreshold
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	return c
}

// IngestStats summarises one run.
type IngestStats struct {
	// RunID identifies the run in logs so interleaved or resumed runs
	// can be told apart.
	RunID string

	// RowsAvailable is the total row count for the selected sources and
	// filter. Populated on dry runs only.
	RowsAvailable int

	RowsRead         int
	ChunksBuilt      int
	ChunksSkipped    int
	ChunksPrechecked int
	ChunksEmbedded   int
	ResourcesWritten int
	CacheResyncs     int

	// Report collects per-item data-quality errors.
	Report *domain.ItemErrorReport
}

// Ingestor coordinates the ingestion pipeline: source pages through the
// chunk builder, the progress cache filter, the embedding batcher and
// the resource writer. Single process; pages proceed sequentially so
// logging and cursor advancement stay deterministic, with the batcher's
// worker pool as the only bounded parallelism.
type Ingestor struct {
	reader  driven.SourceReader
	cache   driven.ProgressCache
	store   driven.ResourceStore
	batcher *Batcher
	build   ChunkBuilder
}

// NewIngestor wires the pipeline.
func NewIngestor(
	reader driven.SourceReader,
	cache driven.ProgressCache,
	store driven.ResourceStore,
	batcher *Batcher,
	build ChunkBuilder,
) *Ingestor {
	return &Ingestor{
		reader:  reader,
		cache:   cache,
		store:   store,
		batcher: batcher,
		build:   build,
	}
}

// Run executes one ingestion over the configured source types.
// Batch-level failures abort the run; per-item errors accumulate in the
// returned stats' report.
func (ing *Ingestor) Run(ctx context.Context, cfg IngestConfig) (*IngestStats, error) {
	cfg = cfg.withDefaults()
	if err := domain.ValidateResume(cfg.ResumeMode, cfg.Filter); err != nil {
		return nil, err
	}

	stats := &IngestStats{
		RunID:  uuid.NewString(),
		Report: domain.NewItemErrorReport(),
	}
	logger.Info("Ingestion run %s: sources=%v resume=%s dry-run=%v", stats.RunID, cfg.SourceTypes, cfg.ResumeMode, cfg.DryRun)

	for _, sourceType := range cfg.SourceTypes {
		if !sourceType.Valid() {
			return stats, fmt.Errorf("%w: %q", domain.ErrUnsupportedSourceType, sourceType)
		}
		if err := ing.runSourceType(ctx, cfg, sourceType, stats); err != nil {
			return stats, fmt.Errorf("ingest %s: %w", sourceType, err)
		}
	}

	if summary := stats.Report.Summary(); summary != "" {
		logger.Warn("Per-item errors:\n%s", summary)
	}
	return stats, nil
}

//nolint:gocognit,gocyclo // Orchestration function with necessary sequential steps
func (ing *Ingestor) runSourceType(
	ctx context.Context,
	cfg IngestConfig,
	sourceType domain.SourceType,
	stats *IngestStats,
) error {
	cacheCheck := cfg.SkipExisting || cfg.ResumeMode == domain.ResumeCacheCheck

	if cfg.DryRun {
		available, err := ing.reader.Count(ctx, sourceType, cfg.Filter)
		if err != nil {
			return fmt.Errorf("counting rows: %w", err)
		}
		stats.RowsAvailable += int(available)
	}

	if cacheCheck && !cfg.DryRun {
		resynced, err := ing.maybeResync(ctx, sourceType, cfg.ResyncThreshold)
		if err != nil {
			return fmt.Errorf("resync cache: %w", err)
		}
		if resynced {
			stats.CacheResyncs++
		}
	}

	cursor, err := ing.startCursor(ctx, cfg, sourceType)
	if err != nil {
		return err
	}

	logger.Info("Ingesting %s (filter=%q resume=%s cursor=%q)", sourceType, cfg.Filter, cfg.ResumeMode, cursor)

	rowsThisType := 0
	lastLogged := 0
	for {
		// Cancellation is only honoured between pages so a committed
		// batch is never followed by a half-applied one.
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := cfg.PageSize
		if cfg.Limit > 0 && cfg.Limit-rowsThisType < limit {
			limit = cfg.Limit - rowsThisType
		}
		if limit <= 0 {
			break
		}

		page, err := ing.reader.NextPage(ctx, driven.PageQuery{
			SourceType: sourceType,
			Filter:     cfg.Filter,
			Cursor:     cursor,
			Limit:      limit,
		})
		if err != nil {
			return fmt.Errorf("read page after %q: %w", cursor, err)
		}
		if len(page.Items) == 0 {
			break
		}
		cursor = page.NextCursor
		rowsThisType += len(page.Items)
		stats.RowsRead += len(page.Items)

		chunks := ing.buildChunks(page.Items, stats)
		if cacheCheck {
			chunks, err = ing.filterCached(ctx, chunks, stats)
			if err != nil {
				return fmt.Errorf("cache filter: %w", err)
			}
		}
		chunks = ing.batcher.FilterOversize(chunks, stats.Report)

		if !cfg.DryRun {
			if err := ing.ingestChunks(ctx, chunks, stats); err != nil {
				return err
			}
		}

		if rowsThisType-lastLogged >= cfg.ProgressEvery {
			logger.Info("%s: %d rows read, %d resources written", sourceType, rowsThisType, stats.ResourcesWritten)
			lastLogged = rowsThisType
		}
	}

	logger.Info("%s done: %d rows read", sourceType, rowsThisType)
	return nil
}

// startCursor resolves the initial cursor for a source type. Full-cursor
// resume extracts the maximum marked id from the progress cache with
// kind-aware comparison; cache-check mode always scans from the start.
func (ing *Ingestor) startCursor(ctx context.Context, cfg IngestConfig, sourceType domain.SourceType) (string, error) {
	if cfg.ResumeMode != domain.ResumeFullCursor {
		return "", nil
	}
	max, err := ing.cache.MaxSourceID(ctx, sourceType, sourceType.IDKind())
	if err != nil {
		return "", fmt.Errorf("cursor from cache: %w", err)
	}
	return max, nil
}

// buildChunks runs the injected builder over a page. Builder failures
// are per-item errors, recorded and skipped.
func (ing *Ingestor) buildChunks(items []domain.SourceItem, stats *IngestStats) []domain.ContentChunk {
	var chunks []domain.ContentChunk //nolint:prealloc // chunk counts vary per item
	for _, item := range items {
		if !item.Language.Valid() {
			stats.Report.Add(domain.ErrInvalidLanguage.Error(), string(item.SourceType)+":"+item.ID)
			continue
		}
		built, err := ing.build(item)
		if err != nil {
			stats.Report.Add(ReportBuildFailed, string(item.SourceType)+":"+item.ID)
			logger.Debug("Build failed for %s %s: %v", item.SourceType, item.ID, err)
			continue
		}
		chunks = append(chunks, built...)
	}
	stats.ChunksBuilt += len(chunks)
	return chunks
}

// filterCached drops chunks whose keys the progress cache already knows.
func (ing *Ingestor) filterCached(ctx context.Context, chunks []domain.ContentChunk, stats *IngestStats) ([]domain.ContentChunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	keys := make([]domain.ResourceKey, len(chunks))
	for i, c := range chunks {
		keys[i] = c.Key
	}
	known, err := ing.cache.HasMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	remaining := make([]domain.ContentChunk, 0, len(chunks))
	for _, c := range chunks {
		if known[c.Key.String()] {
			stats.ChunksSkipped++
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining, nil
}

// ingestChunks embeds and durably persists one page's worth of chunks.
// Keys that already exist durably skip the embedding call entirely; the
// cache mark always happens after the write transaction commits, never
// before.
func (ing *Ingestor) ingestChunks(ctx context.Context, chunks []domain.ContentChunk, stats *IngestStats) error {
	if len(chunks) == 0 {
		return nil
	}

	keys := make([]domain.ResourceKey, len(chunks))
	for i, c := range chunks {
		keys[i] = c.Key
	}
	existing, err := ing.store.ExistingKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("existing keys: %w", err)
	}

	toEmbed := make([]domain.ContentChunk, 0, len(chunks))
	var existingKeys []domain.ResourceKey
	for _, c := range chunks {
		if existing[c.Key.String()] {
			existingKeys = append(existingKeys, c.Key)
			continue
		}
		toEmbed = append(toEmbed, c)
	}

	// Already-durable keys only need their cache entry refreshed; no
	// embedding call is billed for them.
	if len(existingKeys) > 0 {
		stats.ChunksPrechecked += len(existingKeys)
		if err := ing.cache.MarkMany(ctx, existingKeys); err != nil {
			return fmt.Errorf("refresh cache: %w", err)
		}
	}
	if len(toEmbed) == 0 {
		return nil
	}

	records, err := ing.batcher.EmbedChunks(ctx, toEmbed, stats.Report, func(done, total int) {
		logger.Debug("Embedded %d/%d batches", done, total)
	})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	stats.ChunksEmbedded += len(records)
	if len(records) == 0 {
		return nil
	}

	if err := ing.store.UpsertBatch(ctx, records); err != nil {
		return fmt.Errorf("persist batch: %w", err)
	}
	stats.ResourcesWritten += len(records)

	written := make([]domain.ResourceKey, len(records))
	for i, r := range records {
		written[i] = r.Chunk.Key
	}
	// Best-effort: the upsert is idempotent, so a crash between commit
	// and mark costs at most a redundant no-op retry next run.
	if err := ing.cache.MarkMany(ctx, written); err != nil {
		logger.Warn("Cache mark failed for %d keys: %v", len(written), err)
	}
	return nil
}

// maybeResync rebuilds the cache for a source type when its local count
// has fallen below the threshold fraction of the durable count.
func (ing *Ingestor) maybeResync(ctx context.Context, sourceType domain.SourceType, threshold float64) (bool, error) {
	durable, err := ing.store.CountBySourceType(ctx, sourceType)
	if err != nil {
		return false, fmt.Errorf("durable count: %w", err)
	}
	if durable == 0 {
		return false, nil
	}
	local, err := ing.cache.CountBySourceType(ctx, sourceType)
	if err != nil {
		return false, fmt.Errorf("cache count: %w", err)
	}
	if float64(local) >= threshold*float64(durable) {
		return false, nil
	}

	logger.Info("Cache for %s behind durable store (%d < %d), resyncing", sourceType, local, durable)
	if err := ing.Resync(ctx, sourceType); err != nil {
		return false, err
	}
	return true, nil
}

// Resync rebuilds the progress cache for a source type from the durable
// store, scanning keys in id-ordered pages and bulk-loading them.
func (ing *Ingestor) Resync(ctx context.Context, sourceType domain.SourceType) error {
	var afterID int64
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		keys, lastID, err := ing.store.ScanKeys(ctx, sourceType, afterID, ResyncPageSize)
		if err != nil {
			return fmt.Errorf("scan keys after %d: %w", afterID, err)
		}
		if len(keys) == 0 {
			break
		}
		if err := ing.cache.MarkMany(ctx, keys); err != nil {
			return fmt.Errorf("bulk load %d keys: %w", len(keys), err)
		}
		total += len(keys)
		afterID = lastID
	}
	logger.Info("Resynced %d %s keys (durable cursor %s)", total, sourceType, strconv.FormatInt(afterID, 10))
	return nil
}
