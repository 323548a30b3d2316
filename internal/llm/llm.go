// Package llm talks to hosted inference services.
package llm

import (
	"context"
	"fmt"
)

// Profile selects the capability a request needs.
type Profile string

const (
	ProfileText   Profile = "text"
	ProfileVision Profile = "vision"
)

// Image is an encoded image attached to a vision request.
type Image struct {
	MediaType string // e.g. image/png
	Data      []byte
}

// Request is a single inference call.
type Request struct {
	Profile     Profile
	System      string
	Prompt      string
	Image       *Image
	Temperature float64
	MaxTokens   int
	// Structured asks the service to return a single JSON object.
	Structured bool
}

// Service runs inference requests. Implementations are safe for concurrent use
// and hold no per-request state.
type Service interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-200 response from an inference API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference api status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// Transient reports whether the service signalled overload or an internal error.
func (e *StatusError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
