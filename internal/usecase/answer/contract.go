package answer

import "context"

// Completer generates a completion for a single-turn prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
