package geo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdash/internal/geo"
	"airdash/internal/model"
	"airdash/internal/resilience"
)

func TestIPLocator_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","lat":52.37,"lon":4.89,"city":"Amsterdam"}`))
	}))
	defer server.Close()

	loc := geo.NewIPLocator(geo.IPConfig{Endpoint: server.URL, Logger: zerolog.Nop()})
	require.True(t, loc.Available())

	pos, err := loc.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Coords{Lat: 52.37, Lon: 4.89}, pos)
}

func TestIPLocator_FailStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	loc := geo.NewIPLocator(geo.IPConfig{Endpoint: server.URL, Logger: zerolog.Nop()})
	_, err := loc.CurrentPosition(context.Background())
	assert.EqualError(t, err, "position unavailable: private range")
}

func TestIPLocator_UnavailableWhileBreakerOpen(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	loc := geo.NewIPLocator(geo.IPConfig{Endpoint: server.URL, Logger: zerolog.Nop()})
	for i := 0; i < 5; i++ {
		_, err := loc.CurrentPosition(context.Background())
		require.Error(t, err)
	}

	assert.False(t, loc.Available())
	_, err := loc.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestStatic(t *testing.T) {
	loc := geo.Static{Position: model.Coords{Lat: 1, Lon: 2}}
	assert.True(t, loc.Available())

	pos, err := loc.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Coords{Lat: 1, Lon: 2}, pos)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loc.CurrentPosition(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabled(t *testing.T) {
	var loc geo.Disabled
	assert.False(t, loc.Available())
	_, err := loc.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, geo.ErrPermissionDenied)
}
