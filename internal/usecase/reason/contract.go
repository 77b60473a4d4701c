package reason

import (
	"context"

	"github.com/cricketmind/cricketmind/internal/domain"
	"github.com/cricketmind/cricketmind/internal/usecase/answer"
)

// Retriever finds the matches most similar to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievedMatch, error)
}

// Generator produces an answer from question and context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) answer.Result
}
