package ai

import "context"

// LLMProvider turns one prompt into one raw completion. Implementations map
// transport failures to *model.HTTPError so retry can classify them; they do
// not retry themselves.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
