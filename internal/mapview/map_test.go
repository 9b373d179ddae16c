package mapview_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdash/internal/mapview"
	"airdash/internal/model"
)

func TestTileAt(t *testing.T) {
	tc, px := mapview.TileAt(model.Coords{Lat: 0, Lon: 0}, 1)
	assert.Equal(t, mapview.TileCoord{Z: 1, X: 1, Y: 1}, tc)
	assert.Equal(t, image.Pt(0, 0), px)

	tc, _ = mapview.TileAt(model.Coords{Lat: 51.5074, Lon: -0.1278}, 10)
	assert.Equal(t, mapview.TileCoord{Z: 10, X: 511, Y: 340}, tc)

	// Poles clamp into the last row instead of overflowing.
	tc, _ = mapview.TileAt(model.Coords{Lat: -90, Lon: 180}, 2)
	assert.Equal(t, mapview.TileCoord{Z: 2, X: 3, Y: 3}, tc)
}

func TestTileCoord_URL(t *testing.T) {
	tc := mapview.TileCoord{Z: 10, X: 511, Y: 340}
	assert.Equal(t,
		"https://d.basemaps.cartocdn.com/dark_all/10/511/340.png",
		tc.URL(mapview.DefaultTileURL, mapview.DefaultSubdomains),
	)
	assert.Equal(t, "http://tiles/10/511/340", tc.URL("http://tiles/{z}/{x}/{y}", ""))
}

func TestNewTileLayer_RejectsBadTemplate(t *testing.T) {
	_, err := mapview.NewTileLayer(mapview.TileLayerConfig{URLTemplate: "http://tiles/{z}.png"})
	assert.ErrorIs(t, err, mapview.ErrBadTemplate)
}

func TestMap_MarkersAndPopup(t *testing.T) {
	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)

	first := m.AddMarker(model.Coords{Lat: 1, Lon: 1}).BindPopup("first").OpenPopup()
	second := m.AddMarker(model.Coords{Lat: 2, Lon: 2}).BindPopup("second")
	assert.Len(t, m.Markers(), 2)

	popup, ok := m.OpenPopup()
	require.True(t, ok)
	assert.Equal(t, "first", popup)

	second.OpenPopup()
	popup, _ = m.OpenPopup()
	assert.Equal(t, "second", popup)

	m.RemoveLayer(second)
	_, ok = m.OpenPopup()
	assert.False(t, ok)
	assert.Equal(t, []*mapview.Marker{first}, m.Markers())
}

func TestMap_EachLayerAllowsRemoval(t *testing.T) {
	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)
	tl, err := mapview.NewTileLayer(mapview.TileLayerConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)
	m.AddLayer(tl)
	m.AddMarker(model.Coords{Lat: 1, Lon: 1})
	m.AddMarker(model.Coords{Lat: 2, Lon: 2})

	m.EachLayer(func(l mapview.Layer) {
		if _, ok := l.(*mapview.Marker); ok {
			m.RemoveLayer(l)
		}
	})

	assert.Empty(t, m.Markers())
	assert.Same(t, tl, m.TileLayer())
}

func TestMap_SetViewClampsZoom(t *testing.T) {
	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)
	tl, err := mapview.NewTileLayer(mapview.TileLayerConfig{MaxZoom: 12})
	require.NoError(t, err)
	m.AddLayer(tl)

	m.SetView(model.Coords{Lat: 10, Lon: 20}, 13)
	center, zoom := m.View()
	assert.Equal(t, model.Coords{Lat: 10, Lon: 20}, center)
	assert.Equal(t, 12, zoom)
}

func TestMap_RenderGridWithoutTiles(t *testing.T) {
	m := mapview.New(model.Coords{Lat: 0, Lon: 0}, 1)
	m.AddMarker(model.Coords{Lat: -0.0001, Lon: 0.0001})

	out := m.Render(20, 10)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, 1, strings.Count(out, "◉"))
	assert.Empty(t, m.Render(0, 10))
}

func TestMap_LoadTilesAndRender(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, mapview.TileSize, mapview.TileSize))
	for y := 0; y < mapview.TileSize; y++ {
		for x := 0; x < mapview.TileSize; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 30, A: 255})
		}
	}
	require.NoError(t, png.Encode(&buf, img))

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/13/5853/3415.png", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	tl, err := mapview.NewTileLayer(mapview.TileLayerConfig{
		URLTemplate: server.URL + "/{z}/{x}/{y}.png",
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)
	m.AddLayer(tl)
	delhi := model.Coords{Lat: 28.6517, Lon: 77.2219}
	m.SetView(delhi, 13)
	m.AddMarker(delhi)

	require.NoError(t, m.LoadTiles(context.Background()))
	require.NoError(t, m.LoadTiles(context.Background()))
	assert.Equal(t, int32(1), calls.Load(), "second load is served from cache")

	out := m.Render(40, 12)
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "·")
}

func TestMap_LoadTilesWithoutLayer(t *testing.T) {
	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)
	assert.ErrorIs(t, m.LoadTiles(context.Background()), mapview.ErrNoTileLayer)
}
