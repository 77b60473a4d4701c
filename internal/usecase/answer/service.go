// Package answer turns a question plus retrieved match context into a
// natural-language answer via an LLM.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const promptTemplate = `
You are an expert cricket analyst. Use the provided match context to answer the user's question accurately.

You may reason using the following pattern:
Thought: <your reasoning>
Action: <look up info in context>
Observation: <what you find>
Repeat as needed, then conclude:
Final Answer: <answer to the question>

Question: %s

Context (top relevant matches from database):
%s

Answer:
`

// Result carries either the generated answer or the generation failure.
// A failed generation is part of the normal outcome, not a pipeline error:
// callers decide how to surface Err.
type Result struct {
	Content string
	Err     error
}

// Service generates answers from question and context.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates an answer generation service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// Generate builds the analyst prompt and asks the LLM. Provider failures are
// captured in Result.Err so retrieval work is never discarded.
func (s *Service) Generate(ctx context.Context, question, contextText string) Result {
	prompt := fmt.Sprintf(promptTemplate, question, contextText)

	content, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("Answer generation failed", zap.Error(err))
		return Result{Err: err}
	}

	return Result{Content: content}
}
