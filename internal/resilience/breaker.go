// Package resilience wraps outbound calls to the backend and the geolocation
// service in circuit breakers. Calls are never retried.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// MaxRequests is the number of calls allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// Timeout is how long the breaker stays open before going half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// ReadyToTrip decides when to open. Defaults to DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsFailure reports whether err counts against the breaker.
	// Defaults to every non-nil error except context cancellation.
	IsFailure func(err error) bool

	Logger zerolog.Logger
}

// DefaultBreakerConfig returns the defaults used by the AQI and geolocation clients.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
		Logger:      zerolog.Nop(),
	}
}

// DefaultReadyToTrip opens after 5 consecutive failures.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	return counts.ConsecutiveFailures >= 5
}

// NewBreaker creates a circuit breaker returning values of type T.
func NewBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}
	isFailure := cfg.IsFailure
	if isFailure == nil {
		isFailure = defaultIsFailure
	}
	logger := cfg.Logger

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		IsSuccessful: func(err error) bool {
			return !isFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// Translate maps the breaker's own rejection errors to ErrCircuitOpen.
func Translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func defaultIsFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
