package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	dexRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dex_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	dexRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dex_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	dexRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dex_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the backoff before the first retry of a server error.
	// Other classes scale it, see backoffFactor.
	InitialBackoff time.Duration

	// MaxBackoff caps any single backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// backoffFactor scales the initial backoff per error class.
func backoffFactor(errorClass ErrorClass) float64 {
	switch errorClass {
	case ErrorClassRateLimit:
		return 5
	case ErrorClassNetwork:
		return 2
	default:
		return 1
	}
}

// backoffFor returns the jittered (±20%) delay before retry number n (0-based).
func (rc RetryConfig) backoffFor(errorClass ErrorClass, n uint) time.Duration {
	mult := rc.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	base := float64(rc.InitialBackoff) * backoffFactor(errorClass) * math.Pow(mult, float64(n))
	if rc.MaxBackoff > 0 && base > float64(rc.MaxBackoff) {
		base = float64(rc.MaxBackoff)
	}
	return time.Duration(base * (0.8 + rand.Float64()*0.4))
}

// retryWithBackoff runs fn until it succeeds, returns a non-retriable
// error, the attempts run out, or ctx is done.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			return fn()
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return shouldRetry(ClassOf(err))
		}),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			class := ClassOf(err)
			delay := cfg.backoffFor(class, n)
			dexRetryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())
			return delay
		}),
		retry.OnRetry(func(n uint, err error) {
			class := ClassOf(err)
			dexRetriesTotal.WithLabelValues(string(class)).Inc()
			log.Debug().
				Str("error_class", string(class)).
				Uint("attempt", n+1).
				Err(err).
				Msg("Retrying request after backoff")
		}),
	)

	if err == nil {
		if attempt > 1 {
			log.Info().Int("attempt", attempt).Msg("Request succeeded after retry")
		}
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	class := ClassOf(err)
	if shouldRetry(class) && attempt >= attempts {
		dexRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
		log.Warn().
			Str("error_class", string(class)).
			Int("max_attempts", attempts).
			Msg("Retry attempts exhausted")
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
	}
	return err
}
