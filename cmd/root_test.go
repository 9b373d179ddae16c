package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdash/internal/geo"
	"airdash/internal/model"
)

// execute runs the root command with args and returns the resolved config
// without starting the dashboard.
func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var got *Config
	orig := runApp
	runApp = func(cfg *Config, _ string) error {
		got = cfg
		return nil
	}
	t.Cleanup(func() { runApp = orig })

	root := NewRootCmd("test")
	root.SetArgs(args)
	err := root.Execute()
	return got, err
}

// completedSetup writes onboarding settings so no setup screen is shown.
func completedSetup(t *testing.T, settings OnboardingSettings) string {
	t.Helper()
	dir := t.TempDir()
	settings.Completed = true
	require.NoError(t, saveOnboardingSettings(dir, settings))
	return filepath.Join(dir, "airdash.db")
}

func TestRootCmd_Defaults(t *testing.T) {
	t.Setenv(envBackendURL, "")
	t.Setenv(envTileURL, "")
	dbPath := completedSetup(t, OnboardingSettings{GeolocationEnabled: true})

	cfg, err := execute(t, "--db", dbPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, geoIP, cfg.GeoMode)
	assert.Equal(t, filepath.Join(filepath.Dir(dbPath), "airdash.log"), cfg.LogFile)
	assert.Empty(t, cfg.TileURL)
	assert.False(t, cfg.NoTiles)
}

func TestRootCmd_EnvDefaults(t *testing.T) {
	t.Setenv(envBackendURL, "http://aqi.internal:8080")
	t.Setenv(envTileURL, "https://tiles.example.org/{z}/{x}/{y}.png")
	dbPath := completedSetup(t, OnboardingSettings{GeolocationEnabled: true, BackendURL: "http://saved:5000"})

	cfg, err := execute(t, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "http://aqi.internal:8080", cfg.BackendURL, "env wins over saved setup")
	assert.Equal(t, "https://tiles.example.org/{z}/{x}/{y}.png", cfg.TileURL)
}

func TestRootCmd_OnboardingAnswersApplyToDefaults(t *testing.T) {
	t.Setenv(envBackendURL, "")
	dbPath := completedSetup(t, OnboardingSettings{GeolocationEnabled: false, BackendURL: "http://saved:5000"})

	cfg, err := execute(t, "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, geoOff, cfg.GeoMode)
	assert.Equal(t, "http://saved:5000", cfg.BackendURL)

	cfg, err = execute(t, "--db", dbPath, "--geo", "ip", "--backend", "http://flag:5000")
	require.NoError(t, err)
	assert.Equal(t, geoIP, cfg.GeoMode, "flags win over saved setup")
	assert.Equal(t, "http://flag:5000", cfg.BackendURL)
}

func TestRootCmd_InvalidFlags(t *testing.T) {
	dbPath := completedSetup(t, OnboardingSettings{GeolocationEnabled: true})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown geo mode", []string{"--geo", "gps"}, "unknown --geo mode"},
		{"static without position", []string{"--geo", "static", "--lat", "28.6"}, "requires --lat and --lon"},
		{"static out of range", []string{"--geo", "static", "--lat", "95", "--lon", "10"}, "out of range"},
		{"bad log level", []string{"--log-level", "loud"}, "invalid --log-level"},
		{"positional args", []string{"Delhi"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--db", dbPath}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewLocator(t *testing.T) {
	logger := zerolog.Nop()

	static := newLocator(&Config{GeoMode: geoStatic, Lat: 28.6, Lon: 77.2}, logger)
	assert.Equal(t, geo.Static{Position: model.Coords{Lat: 28.6, Lon: 77.2}}, static)

	off := newLocator(&Config{GeoMode: geoOff}, logger)
	assert.False(t, off.Available())

	ip := newLocator(&Config{GeoMode: geoIP}, logger)
	assert.IsType(t, &geo.IPLocator{}, ip)
	assert.True(t, ip.Available())
}

func TestNewMap(t *testing.T) {
	logger := zerolog.Nop()

	m := newMap(&Config{}, logger)
	require.NotNil(t, m)
	require.NotNil(t, m.TileLayer())

	m = newMap(&Config{NoTiles: true}, logger)
	require.NotNil(t, m)
	assert.Nil(t, m.TileLayer())

	assert.Nil(t, newMap(&Config{TileURL: "https://tiles.example.org/{z}.png"}, logger))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "1.2.3")
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "airdash", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Contains(t, entry, "time")
}
