package driven

import "context"

// EmbeddingService generates vector embeddings from text. The model is
// opaque: text in, fixed-dimension vector out, with a provider-side
// token ceiling callers must respect before submitting.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Compatible self-hosted inference servers
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is ordered to match the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
