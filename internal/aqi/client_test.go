package aqi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"airdash/internal/aqi"
	"airdash/internal/model"
	"airdash/internal/resilience"
)

const sampleReading = `{
	"location_name": "Delhi, IN",
	"coords": {"lat": 28.6517, "lon": 77.2219},
	"current": {"aqi_index": 4, "pollutants": {"co": 1201.63, "no": 0.5, "pm2_5": 12.3}},
	"recommendations": "Stay indoors.\\nWear a mask.",
	"forecast": [{"dt": 1700000000, "aqi": 3}, {"dt": 1700086400, "aqi": 5}]
}`

func newClient(t *testing.T, url string) *aqi.Client {
	t.Helper()
	return aqi.NewClient(aqi.ClientConfig{
		BaseURL: url,
		Logger:  zerolog.Nop(),
	})
}

func TestClient_FetchCity(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, aqi.DataPath, r.URL.Path)
		assert.Equal(t, "São Paulo & Co", r.URL.Query().Get("city"))
		assert.False(t, r.URL.Query().Has("lat"))
		assert.False(t, r.URL.Query().Has("lon"))
		_, err := uuid.Parse(r.Header.Get(aqi.RequestIDHeader))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleReading))
	}))
	defer server.Close()

	reading, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("São Paulo & Co"))
	require.NoError(t, err)
	require.NotNil(t, reading)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Delhi, IN", reading.LocationName)
	require.NotNil(t, reading.Coords)
	assert.Equal(t, 28.6517, reading.Coords.Lat)
	assert.Equal(t, 4, reading.Current.AQIIndex)
	assert.Equal(t, "pm2_5", reading.Current.Pollutants[2].Key)
	assert.Equal(t, `Stay indoors.\nWear a mask.`, reading.Recommendations)
	assert.Len(t, reading.Forecast, 2)
}

func TestClient_FetchCoords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "28.6517", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.2219", r.URL.Query().Get("lon"))
		assert.False(t, r.URL.Query().Has("city"))
		_, _ = w.Write([]byte(sampleReading))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Fetch(context.Background(), model.CoordsLookup(28.6517, 77.2219))
	require.NoError(t, err)
}

func TestClient_BuildURL(t *testing.T) {
	client := newClient(t, "http://backend.test/")

	got, err := client.BuildURL(model.CityLookup("New York"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test/get_aqi_data?city=New+York", got)

	got, err = client.BuildURL(model.CoordsLookup(-33.5, 151.25))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test/get_aqi_data?lat=-33.5&lon=151.25", got)

	_, err = client.BuildURL(model.LookupRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidLookup)
}

func TestClient_HTTPErrorWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"upstream timeout"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Paris"))
	require.Error(t, err)

	var httpErr *aqi.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "upstream timeout", httpErr.Message)
	assert.Equal(t, "upstream timeout", err.Error())
}

func TestClient_HTTPErrorFallbackMessage(t *testing.T) {
	bodies := map[string]string{
		"unparseable":   `<html>oops</html>`,
		"missing field": `{"detail":"nope"}`,
		"empty field":   `{"error":""}`,
		"empty body":    ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Paris"))
			var httpErr *aqi.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, "HTTP error, status 502", httpErr.Message)
		})
	}
}

func TestClient_CityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"City not found: Atlantis"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Atlantis"))
	assert.EqualError(t, err, "City not found: Atlantis")
}

func TestClient_MalformedBody(t *testing.T) {
	tests := map[string]string{
		"not json":        `not json`,
		"missing current": `{"location_name":"x","coords":{"lat":1,"lon":2}}`,
		"bad pollutants":  `{"current":{"aqi_index":1,"pollutants":{"co":"lots"}}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Paris"))
			assert.ErrorIs(t, err, aqi.ErrMalformedResponse)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newClient(t, url).Fetch(context.Background(), model.CityLookup("Paris"))
	var netErr *aqi.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestClient_NoRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Paris"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	for i := 0; i < 5; i++ {
		_, _ = client.Fetch(context.Background(), model.CityLookup("Paris"))
	}

	_, err := client.Fetch(context.Background(), model.CityLookup("Paris"))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	for i := 0; i < 8; i++ {
		_, err := client.Fetch(context.Background(), model.CityLookup("Nowhere"))
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}
	assert.Equal(t, int32(8), calls.Load())
}

func TestClient_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"upstream timeout"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Fetch(context.Background(), model.CityLookup("Paris"))
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "aqi.fetch", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "upstream timeout", spans[0].Status().Description)
}
