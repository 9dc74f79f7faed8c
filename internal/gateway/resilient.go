package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRateLimited is returned when the client-side rate limit rejects a call.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitedMessage is the RequestError message for calls rejected by
// the client-side rate limit. No request reached the service.
const RateLimitedMessage = "Too many requests, please try again in a moment"

// ResilienceConfig holds the fortify settings applied to every request.
// Only transport failures and 5xx responses count as failures; 4xx answers
// are normal results.
type ResilienceConfig struct {
	// EnableCircuitBreaker stops calling a service that keeps failing
	EnableCircuitBreaker bool

	// EnableBulkhead caps in-flight requests
	EnableBulkhead bool

	// EnableRateLimit throttles outgoing requests
	EnableRateLimit bool

	// RetryReads retries failed GET requests. Off by default: callers own retry.
	RetryReads bool

	// MaxConcurrent for bulkhead (default: 8)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 10)
	RatePerSecond int

	Logger *slog.Logger
}

// DefaultResilienceConfig returns the settings used by the CLI
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		EnableCircuitBreaker: true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        8,
		RatePerSecond:        10,
	}
}

// rawResponse is a fully read HTTP response.
type rawResponse struct {
	StatusCode int
	Body       []byte
}

// serverError marks a 5xx response so fortify counts it as a failure
// while the response itself stays available to the caller.
type serverError struct {
	raw *rawResponse
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d)", e.raw.StatusCode)
}

type resilience struct {
	breaker  circuitbreaker.CircuitBreaker[*rawResponse]
	retrier  retry.Retry[*rawResponse]
	bulkhead bulkhead.Bulkhead[*rawResponse]
	limiter  ratelimit.RateLimiter
}

func newResilience(cfg ResilienceConfig) *resilience {
	r := &resilience{}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.EnableCircuitBreaker {
		r.breaker = circuitbreaker.New[*rawResponse](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("gateway circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.RetryReads {
		r.retrier = retry.New[*rawResponse](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 8
		}
		r.bulkhead = bulkhead.New[*rawResponse](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 4,
			QueueTimeout:  30 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 10
		}
		r.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 2,
			Interval: time.Second,
		})
	}

	return r
}

// execute runs op through the configured patterns. idempotent calls may be retried.
func (r *resilience) execute(ctx context.Context, idempotent bool, op func(context.Context) (*rawResponse, error)) (*rawResponse, error) {
	if r.limiter != nil && !r.limiter.Allow(ctx, "gateway") {
		return nil, ErrRateLimited
	}

	operation := op
	if r.bulkhead != nil {
		operation = func(ctx context.Context) (*rawResponse, error) {
			return r.bulkhead.Execute(ctx, op)
		}
	}

	attempt := operation
	if r.retrier != nil && idempotent {
		attempt = func(ctx context.Context) (*rawResponse, error) {
			return r.retrier.Do(ctx, operation)
		}
	}

	if r.breaker != nil {
		return r.breaker.Execute(ctx, attempt)
	}
	return attempt(ctx)
}

func (r *resilience) close() error {
	if r.limiter != nil {
		return r.limiter.Close()
	}
	return nil
}

// isRetryable accepts transport failures and gateway-style 5xx responses.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var srvErr *serverError
	if errors.As(err, &srvErr) {
		switch srvErr.raw.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	return true
}
