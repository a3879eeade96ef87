package openmeteo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
)

type retryPolicy struct {
	maxRetries  int
	initial     time.Duration
	maxInterval time.Duration
}

// newBreaker opens after five consecutive failures and tries again after
// thirty seconds.
func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client errors say nothing about the upstream's health.
			var se *StatusError
			if errors.As(err, &se) && !se.Temporary() {
				return true
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// withRetry runs fn until it succeeds, returns a permanent error, or the
// retry budget is spent.
func (c *Client) withRetry(ctx context.Context, api API, fn func() ([]byte, error)) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.initial
	policy.MaxInterval = c.retry.maxInterval
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(max(c.retry.maxRetries, 0))), ctx)

	var body []byte
	op := func() error {
		out, err := fn()
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.ProviderRequests.WithLabelValues(string(api), "retry").Inc()
		c.logger.Warn("open-meteo request failed, retrying",
			"api", api, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
