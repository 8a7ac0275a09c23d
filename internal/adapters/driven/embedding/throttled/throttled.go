// Package throttled decorates an embedding service with proactive
// client-side rate limiting, keeping batch submissions under the
// backend's request-per-second allowance regardless of worker count.
package throttled

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/lexcorpus/lexindex-cli/internal/core/ports/driven"
)

// DefaultRequestsPerSecond is the proactive throttle rate.
const DefaultRequestsPerSecond = 2.0

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService wraps another embedding service behind a token bucket.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap decorates an embedding service. A non-positive rps uses
// DefaultRequestsPerSecond.
func Wrap(inner driven.EmbeddingService, rps float64) *EmbeddingService {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &EmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// EmbedBatch waits for a token, then delegates.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped service.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName delegates to the wrapped service.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping delegates to the wrapped service without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close delegates to the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
