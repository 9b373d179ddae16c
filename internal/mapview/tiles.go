package mapview

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png" // tile servers answer with PNG
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"airdash/internal/model"
)

const (
	// DefaultTileURL is the dark basemap the dashboard uses.
	DefaultTileURL = "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png"

	// DefaultSubdomains rotate requests across tile hosts.
	DefaultSubdomains = "abcd"

	// DefaultMaxZoom is the deepest zoom the tile host serves.
	DefaultMaxZoom = 19

	// DefaultAttribution is shown under the map.
	DefaultAttribution = "© OpenStreetMap contributors © CARTO"

	// TileSize is the edge of a tile in pixels.
	TileSize = 256

	maxLatitude = 85.0511287798
)

// ErrBadTemplate is returned for a tile URL without {z}, {x} and {y}.
var ErrBadTemplate = errors.New("tile url template must contain {z}, {x} and {y}")

// TileCoord addresses one slippy-map tile.
type TileCoord struct {
	Z, X, Y int
}

// TileAt returns the tile containing c at zoom and the pixel offset of c
// inside that tile.
func TileAt(c model.Coords, zoom int) (TileCoord, image.Point) {
	gx, gy := worldPixel(c, zoom)
	tx, ty := int(math.Floor(gx/TileSize)), int(math.Floor(gy/TileSize))
	n := 1 << zoom
	if tx >= n {
		tx = n - 1
	}
	if ty >= n {
		ty = n - 1
	}
	px := int(gx) - tx*TileSize
	py := int(gy) - ty*TileSize
	return TileCoord{Z: zoom, X: tx, Y: ty}, image.Pt(px, py)
}

// worldPixel projects c to web-mercator pixel space at zoom.
func worldPixel(c model.Coords, zoom int) (float64, float64) {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, c.Lat))
	n := float64(int(1) << zoom)
	x := (c.Lon + 180) / 360 * n
	latRad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return x * TileSize, y * TileSize
}

// URL expands template for this tile.
func (t TileCoord) URL(template, subdomains string) string {
	s := ""
	if subdomains != "" {
		idx := t.X + t.Y
		if idx < 0 {
			idx = -idx
		}
		s = string(subdomains[idx%len(subdomains)])
	}
	r := strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
		"{r}", "",
	)
	return r.Replace(template)
}

// TileLayerConfig holds configuration for a tile layer.
type TileLayerConfig struct {
	URLTemplate string
	Subdomains  string
	MaxZoom     int
	Attribution string

	// HTTPClient overrides the fetch client (optional).
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// TileLayer fetches and caches basemap tiles.
type TileLayer struct {
	template    string
	subdomains  string
	maxZoom     int
	attribution string
	httpClient  *http.Client
	logger      zerolog.Logger

	mu    sync.Mutex
	cache map[TileCoord]image.Image
}

func (*TileLayer) isLayer() {}

// NewTileLayer creates a tile layer.
func NewTileLayer(cfg TileLayerConfig) (*TileLayer, error) {
	template := cfg.URLTemplate
	subdomains := cfg.Subdomains
	if template == "" {
		template = DefaultTileURL
		subdomains = DefaultSubdomains
	}
	if strings.Contains(template, "{s}") && subdomains == "" {
		subdomains = DefaultSubdomains
	}
	attribution := cfg.Attribution
	if attribution == "" {
		attribution = DefaultAttribution
	}
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(template, p) {
			return nil, ErrBadTemplate
		}
	}
	maxZoom := cfg.MaxZoom
	if maxZoom == 0 {
		maxZoom = DefaultMaxZoom
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &TileLayer{
		template:    template,
		subdomains:  subdomains,
		maxZoom:     maxZoom,
		attribution: attribution,
		httpClient:  httpClient,
		logger:      cfg.Logger,
		cache:       make(map[TileCoord]image.Image),
	}, nil
}

// MaxZoom returns the deepest zoom this layer serves.
func (t *TileLayer) MaxZoom() int {
	return t.maxZoom
}

// Attribution returns the attribution text.
func (t *TileLayer) Attribution() string {
	return t.attribution
}

// Cached returns a previously fetched tile.
func (t *TileLayer) Cached(tc TileCoord) (image.Image, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	img, ok := t.cache[tc]
	return img, ok
}

// Tile returns tc, fetching it on a cache miss.
func (t *TileLayer) Tile(ctx context.Context, tc TileCoord) (image.Image, error) {
	if img, ok := t.Cached(tc); ok {
		return img, nil
	}

	url := tc.URL(t.template, t.subdomains)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", "airdash")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile fetch failed: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tile decode failed: %w", err)
	}

	t.mu.Lock()
	t.cache[tc] = img
	t.mu.Unlock()

	t.logger.Debug().Str("url", url).Msg("tile cached")
	return img, nil
}
