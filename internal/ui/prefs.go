package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TablePrefs stores per-table UI preferences.
type TablePrefs struct {
	SortKey       string   `json:"sort_key"`
	SortDesc      bool     `json:"sort_desc"`
	HiddenColumns []string `json:"hidden_columns"`
	ActiveColumn  string   `json:"active_column"`
}

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	LastCity      string     `json:"last_city"`
	ExpandedAbout []string   `json:"expanded_about"`
	History       TablePrefs `json:"history"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{ExpandedAbout: []string{"what"}}
}

// DefaultPrefsPath returns ~/.airdash/ui_prefs.json.
func DefaultPrefsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".airdash", "ui_prefs.json"), nil
}

func loadUIPreferences(path string) UIPreferences {
	if path == "" {
		return defaultUIPreferences()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	prefs := defaultUIPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	return prefs
}

func saveUIPreferences(path string, prefs UIPreferences) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
