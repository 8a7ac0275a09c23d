package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// resourceStore implements driven.ResourceStore.
type resourceStore struct {
	store *Store
}

var _ driven.ResourceStore = (*resourceStore)(nil)

// UpsertBatch persists a batch of resources and embeddings in one
// transaction. The resource row is upserted under its natural key; a
// conflict refreshes the timestamp only and the authoritative row id is
// recovered via RETURNING either way. The embedding row is always
// deleted and reinserted, never updated in place, so an aborted prior
// run can never leave a resource holding a stale vector.
func (s *resourceStore) UpsertBatch(ctx context.Context, records []driven.ResourceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, r := range records {
		key := r.Chunk.Key
		metadataJSON, err := json.Marshal(r.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", key, err)
		}

		var pairedKey *string
		if r.Chunk.PairedKey != nil {
			pk := r.Chunk.PairedKey.String()
			pairedKey = &pk
		}

		var resourceID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO resources
				(source_type, source_id, language, chunk_index, title, content,
				 metadata, paired_resource_key, embedding_model_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (source_type, source_id, language, chunk_index)
				DO UPDATE SET refreshed_at = now()
			RETURNING id
		`, string(key.SourceType), key.SourceID, string(key.Language), key.ChunkIndex,
			r.Chunk.Title, r.Chunk.Content, metadataJSON, pairedKey, r.ModelVersion,
		).Scan(&resourceID)
		if err != nil {
			return fmt.Errorf("upserting resource %s: %w", key, err)
		}

		if _, err := tx.Exec(ctx,
			"DELETE FROM embeddings WHERE resource_id = $1", resourceID); err != nil {
			return fmt.Errorf("deleting embedding for %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO embeddings (resource_id, embedding, fulltext, chunk_index)
			VALUES ($1, $2::vector, to_tsvector($3::regconfig, $4), $5)
		`, resourceID, formatVector(r.Vector), tsConfig(string(key.Language)),
			r.Chunk.Content, key.ChunkIndex); err != nil {
			return fmt.Errorf("inserting embedding for %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ExistingKeys reports which keys already exist durably.
func (s *resourceStore) ExistingKeys(ctx context.Context, keys []domain.ResourceKey) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(keys) == 0 {
		return found, nil
	}

	keyStrings := make([]string, len(keys))
	for i, k := range keys {
		keyStrings[i] = k.String()
	}

	rows, err := s.store.pool.Query(ctx, `
		SELECT source_type || ':' || source_id || ':' || language || ':' || chunk_index
		FROM resources
		WHERE source_type || ':' || source_id || ':' || language || ':' || chunk_index = ANY($1)
	`, keyStrings)
	if err != nil {
		return nil, fmt.Errorf("querying existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		found[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return found, nil
}

// CountBySourceType returns the number of resources for a source type.
func (s *resourceStore) CountBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error) {
	var count int64
	err := s.store.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM resources WHERE source_type = $1", string(sourceType)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting resources: %w", err)
	}
	return count, nil
}

// ScanKeys pages resource keys for a source type in row-id order.
func (s *resourceStore) ScanKeys(ctx context.Context, sourceType domain.SourceType, afterID int64, limit int) ([]domain.ResourceKey, int64, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, source_type, source_id, language, chunk_index
		FROM resources
		WHERE source_type = $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`, string(sourceType), afterID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.ResourceKey //nolint:prealloc // size unknown from query
	lastID := afterID
	for rows.Next() {
		var id int64
		var st, sourceID, language string
		var chunkIndex int
		if err := rows.Scan(&id, &st, &sourceID, &language, &chunkIndex); err != nil {
			return nil, 0, fmt.Errorf("scanning key row: %w", err)
		}
		keys = append(keys, domain.ResourceKey{
			SourceType: domain.SourceType(st),
			SourceID:   sourceID,
			Language:   domain.Language(language),
			ChunkIndex: chunkIndex,
		})
		lastID = id
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating key rows: %w", err)
	}
	return keys, lastID, nil
}

// DeleteBySourceType removes all resources for a source type; embeddings
// follow via ON DELETE CASCADE.
func (s *resourceStore) DeleteBySourceType(ctx context.Context, sourceType domain.SourceType) (int64, error) {
	tag, err := s.store.pool.Exec(ctx,
		"DELETE FROM resources WHERE source_type = $1", string(sourceType))
	if err != nil {
		return 0, fmt.Errorf("deleting resources: %w", err)
	}
	return tag.RowsAffected(), nil
}
