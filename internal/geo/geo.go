// Package geo provides the current-position capability used by the
// "use my location" lookup.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"airdash/internal/model"
	"airdash/internal/resilience"
)

// DefaultIPEndpoint is an ip-api compatible geolocation endpoint.
const DefaultIPEndpoint = "http://ip-api.com/json"

// ErrPermissionDenied is returned by the disabled locator when asked anyway.
var ErrPermissionDenied = errors.New("user denied geolocation")

// Disabled is a locator for systems where geolocation is turned off.
type Disabled struct{}

// Available always reports false.
func (Disabled) Available() bool { return false }

// CurrentPosition always fails.
func (Disabled) CurrentPosition(context.Context) (model.Coords, error) {
	return model.Coords{}, ErrPermissionDenied
}

// Static reports a fixed position, typically from --lat/--lon.
type Static struct {
	Position model.Coords
}

// Available reports true.
func (Static) Available() bool { return true }

// CurrentPosition returns the configured position.
func (s Static) CurrentPosition(ctx context.Context) (model.Coords, error) {
	if err := ctx.Err(); err != nil {
		return model.Coords{}, err
	}
	return s.Position, nil
}

// IPConfig holds configuration for the IP locator.
type IPConfig struct {
	// Endpoint is the lookup URL (optional, defaults to DefaultIPEndpoint).
	Endpoint string

	// Timeout bounds a lookup. Default: 5 seconds
	Timeout time.Duration

	// HTTPClient overrides the underlying client (optional).
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// IPLocator resolves the machine's public IP to an approximate position.
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[model.Coords]
	logger     zerolog.Logger
}

// NewIPLocator creates a new IP locator.
func NewIPLocator(cfg IPConfig) *IPLocator {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultIPEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	breakerCfg := resilience.DefaultBreakerConfig("geolocation")
	breakerCfg.Logger = cfg.Logger

	return &IPLocator{
		endpoint:   endpoint,
		httpClient: httpClient,
		breaker:    resilience.NewBreaker[model.Coords](breakerCfg),
		logger:     cfg.Logger,
	}
}

// Available reports whether the locator can be asked. It is false while the
// breaker is open so the UI reports the capability as missing.
func (l *IPLocator) Available() bool {
	return l.breaker.State() != gobreaker.StateOpen
}

// CurrentPosition asks the endpoint for the caller's position.
func (l *IPLocator) CurrentPosition(ctx context.Context) (model.Coords, error) {
	pos, err := l.breaker.Execute(func() (model.Coords, error) {
		return l.lookup(ctx)
	})
	if err != nil {
		return model.Coords{}, resilience.Translate(err)
	}
	return pos, nil
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

func (l *IPLocator) lookup(ctx context.Context) (model.Coords, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, http.NoBody)
	if err != nil {
		return model.Coords{}, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return model.Coords{}, fmt.Errorf("position unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Coords{}, fmt.Errorf("position unavailable: status %d", resp.StatusCode)
	}

	var result ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Coords{}, fmt.Errorf("position unavailable: %w", err)
	}
	if result.Status != "" && !strings.EqualFold(result.Status, "success") {
		msg := result.Message
		if msg == "" {
			msg = result.Status
		}
		return model.Coords{}, fmt.Errorf("position unavailable: %s", msg)
	}

	l.logger.Debug().Str("city", result.City).Msg("resolved position from ip")
	return model.Coords{Lat: result.Lat, Lon: result.Lon}, nil
}
