package parser

import (
	"context"
	"errors"
	"log"
	"time"

	"vidalaboral/internal/port"
)

// RetryParser re-runs a parser on transient failures. Rate-limit errors are
// returned immediately so FallbackParser can open its circuit.
type RetryParser struct {
	inner      port.DocumentParser
	name       string
	maxRetries int
	backoff    time.Duration
}

// NewRetryParser wraps p with up to maxRetries extra attempts, waiting
// backoff, 2*backoff, ... between them.
func NewRetryParser(p port.DocumentParser, name string, maxRetries int, backoff time.Duration) *RetryParser {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryParser{inner: p, name: name, maxRetries: maxRetries, backoff: backoff}
}

func (r *RetryParser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := r.backoff * time.Duration(1<<(attempt-1))
			log.Printf("parser.RetryParser: retrying %s on %s in %s (attempt %d/%d)",
				r.name, input.Name, wait, attempt+1, r.maxRetries+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		out, err := r.inner.Parse(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
