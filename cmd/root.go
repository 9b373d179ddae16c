package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"airdash/internal/aqi"
	"airdash/internal/controller"
	"airdash/internal/db"
	"airdash/internal/geo"
	"airdash/internal/mapview"
	"airdash/internal/model"
	"airdash/internal/ui"
)

const (
	envBackendURL = "AIRDASH_BACKEND_URL"
	envTileURL    = "AIRDASH_TILE_URL"

	geoIP     = "ip"
	geoOff    = "off"
	geoStatic = "static"
)

// runApp starts the dashboard once the configuration is resolved.
var runApp = run

// Config holds CLI configuration.
type Config struct {
	BackendURL string
	DBPath     string
	GeoMode    string
	Lat        float64
	Lon        float64
	TileURL    string
	NoTiles    bool
	LogFile    string
	LogLevel   string
	Timeout    time.Duration
	City       string

	configDir string
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// NewRootCmd builds the airdash command. .env files are loaded first so
// env-based flag defaults see them; variables already set win.
func NewRootCmd(version string) *cobra.Command {
	loadDotEnv(".env", ".env.local")

	cfg := &Config{}
	root := &cobra.Command{
		Use:           "airdash",
		Short:         "Air quality dashboard for the terminal",
		Long:          `Look up the current air quality, pollutant breakdown and 5-day forecast for a city or your location.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveConfig(cmd, cfg); err != nil {
				return err
			}
			return runApp(cfg, version)
		},
	}

	f := root.Flags()
	f.StringVar(&cfg.BackendURL, "backend", envOr(envBackendURL, aqi.DefaultBaseURL), "AQI backend base URL (or set "+envBackendURL+")")
	f.StringVar(&cfg.DBPath, "db", "", "Path to SQLite database file (default: ~/.airdash/airdash.db)")
	f.StringVar(&cfg.GeoMode, "geo", geoIP, "Geolocation source: ip, off or static")
	f.Float64Var(&cfg.Lat, "lat", 0, "Latitude for --geo static")
	f.Float64Var(&cfg.Lon, "lon", 0, "Longitude for --geo static")
	f.StringVar(&cfg.TileURL, "tiles", os.Getenv(envTileURL), "Map tile URL template (or set "+envTileURL+")")
	f.BoolVar(&cfg.NoTiles, "no-tiles", false, "Draw the map as a grid without fetching tiles")
	f.StringVar(&cfg.LogFile, "log-file", "", "Log file (default: ~/.airdash/airdash.log)")
	f.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.DurationVar(&cfg.Timeout, "timeout", 0, "Backend request timeout (0 waits for the transport)")
	f.StringVar(&cfg.City, "city", "", "City to look up on start")

	return root
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// resolveConfig fills in paths, validates flags and merges the onboarding
// settings for anything not set on the command line.
func resolveConfig(cmd *cobra.Command, cfg *Config) error {
	cfg.GeoMode = strings.ToLower(strings.TrimSpace(cfg.GeoMode))
	switch cfg.GeoMode {
	case geoIP, geoOff:
	case geoStatic:
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return fmt.Errorf("--geo static requires --lat and --lon")
		}
		if cfg.Lat < -90 || cfg.Lat > 90 || cfg.Lon < -180 || cfg.Lon > 180 {
			return fmt.Errorf("position %.4f, %.4f is out of range", cfg.Lat, cfg.Lon)
		}
	default:
		return fmt.Errorf("unknown --geo mode %q (want ip, off or static)", cfg.GeoMode)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.configDir = filepath.Join(home, ".airdash")
		cfg.DBPath = filepath.Join(cfg.configDir, "airdash.db")
	} else {
		cfg.configDir = filepath.Dir(cfg.DBPath)
	}
	if err := os.MkdirAll(cfg.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.configDir, "airdash.log")
	}

	settings, err := loadOnboardingSettings(cfg.configDir)
	if err != nil {
		return fmt.Errorf("failed to load onboarding settings: %w", err)
	}
	if shouldRunOnboarding(settings) {
		settings, err = runOnboarding(cfg.configDir, cfg.BackendURL)
		if err != nil {
			return fmt.Errorf("failed to run onboarding: %w", err)
		}
	}
	applyOnboarding(cmd, cfg, settings)
	return nil
}

// applyOnboarding uses the saved answers for flags left at their defaults.
func applyOnboarding(cmd *cobra.Command, cfg *Config, settings OnboardingSettings) {
	if !settings.Completed {
		return
	}
	if !cmd.Flags().Changed("geo") && !settings.GeolocationEnabled {
		cfg.GeoMode = geoOff
	}
	if !cmd.Flags().Changed("backend") && os.Getenv(envBackendURL) == "" && settings.BackendURL != "" {
		cfg.BackendURL = settings.BackendURL
	}
}

func newLogger(w io.Writer, level, version string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "airdash").
		Str("version", version).
		Logger()
}

func newLocator(cfg *Config, logger zerolog.Logger) controller.Geolocator {
	switch cfg.GeoMode {
	case geoStatic:
		return geo.Static{Position: model.Coords{Lat: cfg.Lat, Lon: cfg.Lon}}
	case geoOff:
		return geo.Disabled{}
	default:
		return geo.NewIPLocator(geo.IPConfig{
			Logger: logger.With().Str("component", "geo").Logger(),
		})
	}
}

// newMap returns nil when the map cannot be set up; the dashboard then shows
// the map placeholder instead.
func newMap(cfg *Config, logger zerolog.Logger) *mapview.Map {
	m := mapview.New(mapview.DefaultCenter, mapview.DefaultZoom)
	if cfg.NoTiles {
		return m
	}
	tl, err := mapview.NewTileLayer(mapview.TileLayerConfig{
		URLTemplate: cfg.TileURL,
		Logger:      logger.With().Str("component", "tiles").Logger(),
	})
	if err != nil {
		logger.Error().Err(err).Str("template", cfg.TileURL).Msg("could not set up the map")
		return nil
	}
	m.AddLayer(tl)
	return m
}

func run(cfg *Config, version string) error {
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(logFile, cfg.LogLevel, version)
	logger.Info().
		Str("backend", cfg.BackendURL).
		Str("geo", cfg.GeoMode).
		Msg("starting airdash")

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	client := aqi.NewClient(aqi.ClientConfig{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.Timeout,
		Logger:  logger.With().Str("component", "aqi").Logger(),
	})

	regions := ui.NewRegions()
	mapw := newMap(cfg, logger)

	ctrlCfg := controller.Config{
		Service: client,
		Display: regions,
		Locator: newLocator(cfg, logger),
		Logger:  logger.With().Str("component", "controller").Logger(),
	}
	if mapw != nil {
		ctrlCfg.Map = mapw
	}

	app := ui.New(ui.Options{
		Controller:  controller.New(ctrlCfg),
		Regions:     regions,
		Map:         mapw,
		DB:          database,
		InitialCity: cfg.City,
		PrefsPath:   filepath.Join(cfg.configDir, "ui_prefs.json"),
		Logger:      logger.With().Str("component", "ui").Logger(),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	logger.Info().Msg("airdash stopped")
	return nil
}
