package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"
)

// permanentError marks a failure that retrying cannot fix (e.g. a 4xx
// response, a parse error on well-formed input).
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so RetryWithContext stops immediately instead of
// backing off.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryWithContext runs fn up to attempts times with exponential backoff and
// ±30% jitter between tries. Permanent errors and context cancellation stop
// the loop early.
func RetryWithContext(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		backoff := delay * time.Duration(1<<i)
		backoff = time.Duration(float64(backoff) * (1 + 0.3*(2*rand.Float64()-1)))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts, last error: %w", attempts, err)
}

func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}
