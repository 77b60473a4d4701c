// Package retrieve finds the matches most similar to a question.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/metrics"
)

// DefaultTopK is the number of matches retrieved when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// Service embeds a question and retrieves the nearest match summaries.
type Service struct {
	embed Embedder
	repo  Repository
}

// New creates a retrieval service.
func New(embed Embedder, repo Repository) *Service {
	return &Service{embed: embed, repo: repo}
}

// Retrieve returns up to topK matches ranked by similarity to the question.
// Non-positive topK falls back to DefaultTopK, and topK larger than the corpus
// is clamped to the corpus size. The question must be non-blank.
func (s *Service) Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievedMatch, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	if topK <= 0 {
		topK = DefaultTopK
	}
	if n := s.repo.Len(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}

	embResult, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("vectorize question: %w", err)
	}

	vector := domain.Normalize(embResult.Embedding)

	results, err := s.repo.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("search matches: %w", err)
	}

	metrics.RetrievalMatchesReturned.Observe(float64(len(results)))

	return results, nil
}
