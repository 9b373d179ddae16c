// Package aqi is the client for the dashboard backend's /get_aqi_data endpoint.
package aqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"airdash/internal/model"
	"airdash/internal/resilience"
)

const (
	// DefaultBaseURL is where the backend listens in development.
	DefaultBaseURL = "http://localhost:5000"

	// DataPath is the lookup endpoint.
	DataPath = "/get_aqi_data"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	tracerName = "airdash/aqi"

	// maxErrorBody bounds how much of an error body is read.
	maxErrorBody = 64 << 10
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root (optional, defaults to DefaultBaseURL).
	BaseURL string

	// Timeout bounds a whole request. Zero leaves it to the transport.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (optional).
	HTTPClient *http.Client

	// Breaker configures the circuit breaker (optional).
	Breaker *resilience.BreakerConfig

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches readings from the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*model.Reading]
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breakerCfg := resilience.DefaultBreakerConfig("aqi-backend")
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}
	breakerCfg.Logger = cfg.Logger
	if breakerCfg.IsFailure == nil {
		breakerCfg.IsFailure = isBackendFailure
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker:    resilience.NewBreaker[*model.Reading](breakerCfg),
		tracer:     otel.Tracer(tracerName),
		logger:     cfg.Logger,
	}
}

// BuildURL returns the lookup URL for req. A city request carries only the
// escaped city parameter; a coordinate request carries only lat and lon.
func (c *Client) BuildURL(req model.LookupRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	switch req.Kind {
	case model.LookupCity:
		params.Set("city", req.City)
	case model.LookupCoords:
		params.Set("lat", strconv.FormatFloat(req.Coords.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(req.Coords.Lon, 'f', -1, 64))
	}

	return fmt.Sprintf("%s%s?%s", c.baseURL, DataPath, params.Encode()), nil
}

// Fetch performs one lookup. It never retries.
func (c *Client) Fetch(ctx context.Context, req model.LookupRequest) (*model.Reading, error) {
	ctx, span := c.tracer.Start(ctx, "aqi.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("aqi.lookup.kind", req.Kind.String())),
	)
	defer span.End()

	reading, err := c.breaker.Execute(func() (*model.Reading, error) {
		return c.fetch(ctx, span, req)
	})
	if err != nil {
		err = resilience.Translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return reading, nil
}

func (c *Client) fetch(ctx context.Context, span trace.Span, lookup model.LookupRequest) (*model.Reading, error) {
	reqURL, err := c.BuildURL(lookup)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	log := c.logger.With().
		Str("request_id", requestID).
		Str("lookup", lookup.Describe()).
		Logger()
	log.Debug().Str("url", reqURL).Msg("fetching air quality")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("backend request failed")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log = log.With().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Logger()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := decodeError(resp)
		log.Warn().Str("error", httpErr.Message).Msg("backend returned error status")
		return nil, httpErr
	}

	var reading model.Reading
	if err := json.NewDecoder(resp.Body).Decode(&reading); err != nil {
		log.Warn().Err(err).Msg("undecodable backend body")
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if reading.Current == nil {
		return nil, fmt.Errorf("%w: missing current conditions", ErrMalformedResponse)
	}

	log.Info().
		Str("location", reading.LocationName).
		Int("aqi", reading.Current.AQIIndex).
		Msg("air quality received")
	return &reading, nil
}

// decodeError builds an HTTPError from an error response, preferring the
// body's "error" field over the generic status message.
func decodeError(resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    statusMessage(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return httpErr
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return httpErr
	}
	if payload.Error != "" {
		httpErr.Message = payload.Error
	}
	return httpErr
}

// isBackendFailure counts server faults against the breaker. Client errors
// (4xx) such as an unknown city are the user's, not the backend's.
func isBackendFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, model.ErrInvalidLookup) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}
