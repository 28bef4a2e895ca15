// Package completion provides clients for LLM completion services. A client
// accepts a prompt string and returns the model's response text; everything
// else (prompting, retries, aggregation) lives with the caller.
package completion

import (
	"context"
	"errors"
)

// Client is the outbound boundary to a completion service. Implementations
// must be safe for concurrent use; the auditor shares one client across all
// of its workers.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when the service answers successfully but
// carries no usable text.
var ErrEmptyResponse = errors.New("completion: empty response")

// PermanentError marks a failure that will not succeed on retry (for example
// a request rejected for being over the context window). The auditor
// currently retries all failures uniformly; the distinction is kept at the
// client boundary for callers that want it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as non-retryable.
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked non-retryable.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
