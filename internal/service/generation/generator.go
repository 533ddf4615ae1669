// Package generation defines the text-generation capability consumed by
// the pipeline and its production adapter over the configured chat model.
package generation

import (
	"context"
	"errors"
)

var (
	// ErrTimeout marks a generation call abandoned because the caller's
	// deadline elapsed.
	ErrTimeout = errors.New("generation timeout")
	// ErrBackend marks any other failure of the generation backend.
	ErrBackend = errors.New("generation backend error")
)

// Generator produces raw text for a prompt. Implementations must honor
// context cancellation and deadlines, must not retry internally (retry
// policy belongs to the pipeline), and must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
