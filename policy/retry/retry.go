// Package retry wraps the provider boundary with bounded, backoff-paced
// retries. Only transient transport failures are retried; run semantics stay
// with the engine.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/promptfile/promptfile/engine"
)

// Config controls retry behavior for a wrapped provider.
type Config struct {
	// MaxAttempts counts the first try; values below 1 mean a single attempt.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff. Defaults to 500ms.
	BaseDelay time.Duration
	// MaxDelay caps the per-attempt backoff. Defaults to 10s.
	MaxDelay time.Duration
	// ShouldRetry decides whether an error is worth another attempt.
	// Defaults to engine.IsRetryableTransport.
	ShouldRetry func(error) bool
}

// WrapProvider wraps a provider with deterministic, error-only retries. The
// wrapped Send never retries after the context is done.
func WrapProvider(provider engine.Provider, cfg Config) engine.Provider {
	if provider == nil {
		return nil
	}
	return &providerWrapper{next: provider, cfg: cfg}
}

type providerWrapper struct {
	next engine.Provider
	cfg  Config
}

func (w *providerWrapper) Send(ctx context.Context, request engine.Request) (engine.Response, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return engine.Response{}, ctxErr
	}

	attempts := normalizedAttempts(w.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := w.next.Send(ctx, request)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if attempt == attempts || !w.shouldRetry(ctx, err) {
			break
		}
		if err := sleep(ctx, backoffDelay(w.cfg, attempt)); err != nil {
			return engine.Response{}, lastErr
		}
	}
	return engine.Response{}, lastErr
}

func (w *providerWrapper) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if w.cfg.ShouldRetry == nil {
		return engine.IsRetryableTransport(err)
	}
	return w.cfg.ShouldRetry(err)
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

// backoffDelay doubles the base per completed attempt, caps at MaxDelay, and
// jitters within [delay/2, delay) so synchronized callers fan out.
func backoffDelay(cfg Config, attempt int) time.Duration {
	base := cfg.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	max := cfg.MaxDelay
	if max <= 0 {
		max = 10 * time.Second
	}

	delay := base << (attempt - 1)
	if delay > max || delay <= 0 {
		delay = max
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
