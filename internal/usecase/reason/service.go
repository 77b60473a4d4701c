// Package reason runs the full question answering pipeline: retrieve relevant
// matches, assemble their summaries into context, generate an answer.
package reason

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Outcome is the pipeline result for one question.
type Outcome struct {
	FinalAnswer      string
	RetrievedMatches int
}

// Service orchestrates retrieval and answer generation.
type Service struct {
	retriever Retriever
	generator Generator
	logger    *zap.Logger
}

// New creates a reasoning service.
func New(retriever Retriever, generator Generator, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Reason answers a question against the match corpus. Retrieval failures abort
// the pipeline; generation failures do not, since the retrieval count is still
// meaningful to the caller.
func (s *Service) Reason(ctx context.Context, question string, topK int) (Outcome, error) {
	matches, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return Outcome{}, fmt.Errorf("retrieve matches: %w", err)
	}

	contextParts := make([]string, len(matches))
	for i, m := range matches {
		contextParts[i] = m.TextRepr
	}
	contextText := strings.Join(contextParts, "\n\n")

	result := s.generator.Generate(ctx, question, contextText)

	outcome := Outcome{RetrievedMatches: len(matches)}
	if result.Err != nil {
		s.logger.Warn("Serving degraded answer",
			zap.Int("retrieved_matches", len(matches)),
			zap.Error(result.Err))
		outcome.FinalAnswer = fmt.Sprintf("Error generating answer: %v", result.Err)
		return outcome, nil
	}

	outcome.FinalAnswer = result.Content
	return outcome, nil
}
