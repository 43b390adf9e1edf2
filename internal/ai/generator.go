package ai

import "context"

// Generator is the text-generation collaborator used by the screening core.
// Implementations are synchronous and return their own errors unchanged;
// callers own retry and deadline policy through ctx.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a plain function to the Generator interface.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
