package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdash/internal/resilience"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := resilience.NewBreaker[int](resilience.DefaultBreakerConfig("test"))
	boom := errors.New("boom")

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, resilience.Translate(err), resilience.ErrCircuitOpen)
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	cb := resilience.NewBreaker[int](resilience.DefaultBreakerConfig("test-cancel"))

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, context.Canceled })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreaker_CustomIsFailure(t *testing.T) {
	benign := errors.New("client error")
	cfg := resilience.DefaultBreakerConfig("test-custom")
	cfg.IsFailure = func(err error) bool {
		return err != nil && !errors.Is(err, benign)
	}
	cb := resilience.NewBreaker[int](cfg)

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, benign })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestTranslate_PassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, resilience.Translate(boom))
	assert.Nil(t, resilience.Translate(nil))
}
