package retrieve

import (
	"context"

	"github.com/cricketmind/cricketmind/internal/domain"
)

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Repository defines the storage contract for match retrieval.
type Repository interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedMatch, error)
	Len() int
}
