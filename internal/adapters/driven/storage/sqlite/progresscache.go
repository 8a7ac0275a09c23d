package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// Ensure ProgressCache implements the interface.
var _ driven.ProgressCache = (*ProgressCache)(nil)

// lookupBatchSize bounds IN-list sizes to stay under SQLite's bound
// parameter ceiling.
const lookupBatchSize = 500

const schema = `
	CREATE TABLE IF NOT EXISTS progress (
		key TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		marked_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS progress_source_type_idx ON progress (source_type);
`

// ProgressCache is the SQLite-backed progress cache.
type ProgressCache struct {
	db   *sql.DB
	path string
}

// NewProgressCache opens (or creates) the cache database in dataDir.
// If dataDir is empty, defaults to ~/.lexindex/data/progress.db.
func NewProgressCache(dataDir string) (*ProgressCache, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexindex", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "progress.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating progress table: %w", err)
	}

	return &ProgressCache{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (c *ProgressCache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *ProgressCache) Path() string {
	return c.path
}

// Has reports whether a key is marked.
func (c *ProgressCache) Has(ctx context.Context, key domain.ResourceKey) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM progress WHERE key = ?", key.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking key: %w", err)
	}
	return count > 0, nil
}

// HasMany returns the subset of keys that are marked, querying in
// batches of lookupBatchSize.
func (c *ProgressCache) HasMany(ctx context.Context, keys []domain.ResourceKey) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(keys); start += lookupBatchSize {
		end := start + lookupBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := c.lookupBatch(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (c *ProgressCache) lookupBatch(ctx context.Context, keys []domain.ResourceKey, found map[string]bool) error {
	placeholders := make([]byte, 0, len(keys)*2)
	args := make([]any, len(keys))
	for i, k := range keys {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = k.String()
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT key FROM progress WHERE key IN ("+string(placeholders)+")", args...)
	if err != nil {
		return fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scanning key: %w", err)
		}
		found[key] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating keys: %w", err)
	}
	return nil
}

// Mark records one key.
func (c *ProgressCache) Mark(ctx context.Context, key domain.ResourceKey) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO progress (key, source_type, source_id, marked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET marked_at = excluded.marked_at
	`, key.String(), string(key.SourceType), key.SourceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marking key: %w", err)
	}
	return nil
}

// MarkMany records keys in a single transaction.
func (c *ProgressCache) MarkMany(ctx context.Context, keys []domain.ResourceKey) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO progress (key, source_type, source_id, marked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET marked_at = excluded.marked_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k.String(), string(k.SourceType), k.SourceID, now); err != nil {
			return fmt.Errorf("marking key %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CountBySourceType returns the number of marked keys for a source type.
func (c *ProgressCache) CountBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM progress WHERE source_type = ?", string(sourceType)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting keys: %w", err)
	}
	return count, nil
}

// Total returns the number of marked keys.
func (c *ProgressCache) Total(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM progress").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting keys: %w", err)
	}
	return count, nil
}

// MaxSourceID returns the largest marked source id for a source type.
// Numeric ids compare as integers; text ids compare lexicographically
// and are never routed through the numeric cast.
func (c *ProgressCache) MaxSourceID(ctx context.Context, sourceType domain.SourceType, kind domain.IDKind) (string, error) {
	query := "SELECT MAX(source_id) FROM progress WHERE source_type = ?"
	if kind == domain.IDKindNumeric {
		query = "SELECT MAX(CAST(source_id AS INTEGER)) FROM progress WHERE source_type = ?"
	}

	var max sql.NullString
	if err := c.db.QueryRowContext(ctx, query, string(sourceType)).Scan(&max); err != nil {
		return "", fmt.Errorf("max source id: %w", err)
	}
	if !max.Valid {
		return "", nil
	}
	return max.String, nil
}

// Clear removes every entry.
func (c *ProgressCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM progress"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
