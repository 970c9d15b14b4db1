// Package generator wraps the upstream generative-text API behind a small
// interface so handlers can be exercised without the network.
package generator

import (
	"context"

	"insight-api/internal/shared"
)

// Result is the generated text plus token usage when the upstream reports it.
type Result struct {
	Text  string
	Usage *shared.Usage
}

// TextGenerator turns a prompt into model-generated text.
// Implementations must be safe for concurrent use.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
	Model() string
}

// Func adapts a plain function to a TextGenerator. Mostly useful in tests.
type Func struct {
	ModelName string
	Fn        func(ctx context.Context, prompt string) (*Result, error)
}

func (f Func) Generate(ctx context.Context, prompt string) (*Result, error) {
	return f.Fn(ctx, prompt)
}

func (f Func) Model() string {
	return f.ModelName
}
