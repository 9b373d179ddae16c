package db

import (
	"database/sql"
	"fmt"
	"time"

	"airdash/internal/model"
)

// HistoryLimit is how many lookups the history screen lists.
const HistoryLimit = 50

// timeLayout sorts lexically in the same order as time.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// AddLookup records a loaded lookup and returns its ID.
func AddLookup(db *sql.DB, e model.HistoryEntry) (int64, error) {
	if err := e.Request.Validate(); err != nil {
		return 0, fmt.Errorf("failed to add lookup: %w", err)
	}

	query := `
		INSERT INTO lookups (kind, city, latitude, longitude, location_name, aqi_index, looked_up_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	city, lat, lon := requestColumns(e.Request)
	result, err := db.Exec(query, e.Request.Kind.String(), city, lat, lon, nullString(e.LocationName), nullIndex(e.AQIIndex), formatTime(e.LookedUpAt))
	if err != nil {
		return 0, fmt.Errorf("failed to add lookup: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted lookup id: %w", err)
	}
	return id, nil
}

// RestoreLookup puts back a deleted entry under its original ID.
func RestoreLookup(db *sql.DB, e model.HistoryEntry) error {
	query := `
		INSERT INTO lookups (id, kind, city, latitude, longitude, location_name, aqi_index, looked_up_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	city, lat, lon := requestColumns(e.Request)
	if _, err := db.Exec(query, e.ID, e.Request.Kind.String(), city, lat, lon, nullString(e.LocationName), nullIndex(e.AQIIndex), formatTime(e.LookedUpAt)); err != nil {
		return fmt.Errorf("failed to restore lookup: %w", err)
	}
	return nil
}

// RestoreLookups restores entries in one transaction.
func RestoreLookups(db *sql.DB, entries []model.HistoryEntry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lookups (id, kind, city, latitude, longitude, location_name, aqi_index, looked_up_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range entries {
		city, lat, lon := requestColumns(e.Request)
		if _, err := tx.Exec(query, e.ID, e.Request.Kind.String(), city, lat, lon, nullString(e.LocationName), nullIndex(e.AQIIndex), formatTime(e.LookedUpAt)); err != nil {
			return fmt.Errorf("failed to restore lookup %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

// ListRecent returns the newest lookups first.
func ListRecent(db *sql.DB, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	query := `
		SELECT id, kind, COALESCE(city, ''), latitude, longitude,
		       COALESCE(location_name, ''), aqi_index, looked_up_at
		FROM lookups
		ORDER BY looked_up_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	defer rows.Close()

	var results []model.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lookup rows: %w", err)
	}

	return results, nil
}

// GetLookup retrieves a single entry by ID.
func GetLookup(db *sql.DB, id int64) (model.HistoryEntry, error) {
	query := `
		SELECT id, kind, COALESCE(city, ''), latitude, longitude,
		       COALESCE(location_name, ''), aqi_index, looked_up_at
		FROM lookups
		WHERE id = ?
	`
	e, err := scanEntry(db.QueryRow(query, id))
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("failed to get lookup: %w", err)
	}
	return e, nil
}

// DeleteLookup removes one entry.
func DeleteLookup(db *sql.DB, id int64) error {
	if _, err := db.Exec("DELETE FROM lookups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete lookup: %w", err)
	}
	return nil
}

// ClearHistory removes every entry and returns what was removed.
func ClearHistory(db *sql.DB) ([]model.HistoryEntry, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id, kind, COALESCE(city, ''), latitude, longitude,
		       COALESCE(location_name, ''), aqi_index, looked_up_at
		FROM lookups
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookups: %w", err)
	}

	var removed []model.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lookup rows: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM lookups"); err != nil {
		return nil, fmt.Errorf("failed to clear history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clear: %w", err)
	}
	return removed, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	var kind, lookedUpAt string
	var lat, lon sql.NullFloat64
	var aqiIndex sql.NullInt64

	if err := s.Scan(&e.ID, &kind, &e.Request.City, &lat, &lon, &e.LocationName, &aqiIndex, &lookedUpAt); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("failed to scan lookup row: %w", err)
	}

	e.Request.Kind = model.ParseLookupKind(kind)
	if e.Request.Kind == model.LookupCoords {
		e.Request.Coords = model.Coords{Lat: lat.Float64, Lon: lon.Float64}
	}
	if aqiIndex.Valid {
		e.AQIIndex = int(aqiIndex.Int64)
	}
	if t, err := time.Parse(timeLayout, lookedUpAt); err == nil {
		e.LookedUpAt = t
	}
	return e, nil
}

func requestColumns(req model.LookupRequest) (city, lat, lon interface{}) {
	switch req.Kind {
	case model.LookupCity:
		city = req.City
	case model.LookupCoords:
		lat = req.Coords.Lat
		lon = req.Coords.Lon
	}
	return city, lat, lon
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIndex(i int) interface{} {
	if i == 0 {
		return nil
	}
	return i
}
