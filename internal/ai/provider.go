// Package ai adapts hosted vision models as recognition backends.
package ai

import "context"

// Provider sends a prompt with an optional image to a hosted model and
// returns the raw text reply.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, prompt string, imageBase64 string) (string, error)
}
