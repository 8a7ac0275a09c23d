package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/lexcorpus/lexindex-cli/internal/core/domain"
	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// Ensure ProgressCache implements the interface.
var _ driven.ProgressCache = (*ProgressCache)(nil)

// ProgressCache is an in-memory progress cache.
type ProgressCache struct {
	mu      sync.RWMutex
	entries map[string]domain.ResourceKey
}

// NewProgressCache creates an empty in-memory progress cache.
func NewProgressCache() *ProgressCache {
	return &ProgressCache{entries: make(map[string]domain.ResourceKey)}
}

// Has reports whether a key is marked.
func (c *ProgressCache) Has(_ context.Context, key domain.ResourceKey) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key.String()]
	return ok, nil
}

// HasMany returns the subset of keys that are marked.
func (c *ProgressCache) HasMany(_ context.Context, keys []domain.ResourceKey) (map[string]bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found := make(map[string]bool)
	for _, k := range keys {
		if _, ok := c.entries[k.String()]; ok {
			found[k.String()] = true
		}
	}
	return found, nil
}

// Mark records one key.
func (c *ProgressCache) Mark(_ context.Context, key domain.ResourceKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = key
	return nil
}

// MarkMany records all keys.
func (c *ProgressCache) MarkMany(_ context.Context, keys []domain.ResourceKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.entries[k.String()] = k
	}
	return nil
}

// CountBySourceType counts marked keys for a source type.
func (c *ProgressCache) CountBySourceType(_ context.Context, sourceType domain.SourceType) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, k := range c.entries {
		if k.SourceType == sourceType {
			n++
		}
	}
	return n, nil
}

// Total counts all marked keys.
func (c *ProgressCache) Total(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.entries)), nil
}

// MaxSourceID returns the largest marked source id with kind-aware
// comparison.
func (c *ProgressCache) MaxSourceID(_ context.Context, sourceType domain.SourceType, kind domain.IDKind) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var maxText string
	var maxNum int64
	seen := false
	for _, k := range c.entries {
		if k.SourceType != sourceType {
			continue
		}
		switch kind {
		case domain.IDKindNumeric:
			n, err := strconv.ParseInt(k.SourceID, 10, 64)
			if err != nil {
				continue
			}
			if !seen || n > maxNum {
				maxNum = n
				maxText = k.SourceID
			}
		case domain.IDKindText:
			if !seen || k.SourceID > maxText {
				maxText = k.SourceID
			}
		}
		seen = true
	}
	if !seen {
		return "", nil
	}
	return maxText, nil
}

// Clear removes every entry.
func (c *ProgressCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.ResourceKey)
	return nil
}

// Close is a no-op.
func (c *ProgressCache) Close() error {
	return nil
}
