package buildindex

import (
	"context"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

// BatchEmbedder vectorizes summary batches.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Sink atomically replaces the stored index contents.
type Sink interface {
	ReplaceAll(ctx context.Context, rows []metadata.Row, vectors [][]float32) error
}
