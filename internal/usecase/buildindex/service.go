// Package buildindex turns match records into a searchable vector index:
// summarize, embed in batches, normalize, persist rows and vectors in
// lockstep order.
package buildindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/metadata"
)

const embedBatchSize = 64

// Stats reports what an index build did.
type Stats struct {
	Indexed     int
	Skipped     int
	TotalTokens int
	Dim         int
}

// Service builds the match index.
type Service struct {
	embed  BatchEmbedder
	sink   Sink
	logger *zap.Logger
}

// New creates an index build service.
func New(embed BatchEmbedder, sink Sink, logger *zap.Logger) *Service {
	return &Service{embed: embed, sink: sink, logger: logger}
}

// Build summarizes, embeds and stores the given records. Records that cannot
// be summarized are skipped with a warning so one bad record never sinks a
// whole corpus build.
func (s *Service) Build(ctx context.Context, records []domain.MatchRecord) (Stats, error) {
	rows := make([]metadata.Row, 0, len(records))
	skipped := 0

	for _, rec := range records {
		text, err := domain.Summarize(rec)
		if err != nil {
			s.logger.Warn("Skipping record",
				zap.String("match_id", rec.MatchID),
				zap.Error(err))
			skipped++
			continue
		}
		rows = append(rows, metadata.Row{MatchID: rec.MatchID, TextRepr: text})
	}

	if len(rows) == 0 {
		return Stats{}, fmt.Errorf("no indexable records out of %d", len(records))
	}

	vectors := make([][]float32, 0, len(rows))
	totalTokens := 0

	for start := 0; start < len(rows); start += embedBatchSize {
		end := min(start+embedBatchSize, len(rows))

		texts := make([]string, 0, end-start)
		for _, row := range rows[start:end] {
			texts = append(texts, row.TextRepr)
		}

		result, err := s.embed.BatchEmbed(ctx, texts)
		if err != nil {
			return Stats{}, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(result.Embeddings) != len(texts) {
			return Stats{}, fmt.Errorf("embed batch at %d: got %d vectors for %d texts: %w",
				start, len(result.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
		}

		domain.NormalizeAll(result.Embeddings)
		vectors = append(vectors, result.Embeddings...)
		totalTokens += result.TotalTokens
	}

	dim := 0
	for i, v := range vectors {
		if i == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return Stats{}, fmt.Errorf("vector %d has dim %d, expected %d: %w",
				i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}

	if err := s.sink.ReplaceAll(ctx, rows, vectors); err != nil {
		return Stats{}, fmt.Errorf("store index: %w", err)
	}

	s.logger.Info("Index built",
		zap.Int("indexed", len(rows)),
		zap.Int("skipped", skipped),
		zap.Int("dim", dim),
		zap.Int("total_tokens", totalTokens))

	return Stats{
		Indexed:     len(rows),
		Skipped:     skipped,
		TotalTokens: totalTokens,
		Dim:         dim,
	}, nil
}
