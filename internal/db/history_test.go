package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdash/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "airdash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAddLookup_RoundTrip(t *testing.T) {
	conn := openTestDB(t)
	at := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	cityID, err := AddLookup(conn, model.HistoryEntry{
		Request:      model.CityLookup("Delhi"),
		LocationName: "Delhi, IN",
		AQIIndex:     4,
		LookedUpAt:   at,
	})
	require.NoError(t, err)

	coordsID, err := AddLookup(conn, model.HistoryEntry{
		Request:      model.CoordsLookup(48.8566, 2.3522),
		LocationName: "Paris, FR",
		AQIIndex:     2,
		LookedUpAt:   at.Add(time.Minute),
	})
	require.NoError(t, err)

	city, err := GetLookup(conn, cityID)
	require.NoError(t, err)
	assert.Equal(t, model.CityLookup("Delhi"), city.Request)
	assert.Equal(t, "Delhi, IN", city.LocationName)
	assert.Equal(t, 4, city.AQIIndex)
	assert.True(t, at.Equal(city.LookedUpAt))

	coords, err := GetLookup(conn, coordsID)
	require.NoError(t, err)
	assert.Equal(t, model.CoordsLookup(48.8566, 2.3522), coords.Request)
}

func TestAddLookup_RejectsInvalidRequest(t *testing.T) {
	conn := openTestDB(t)
	_, err := AddLookup(conn, model.HistoryEntry{Request: model.LookupRequest{}})
	assert.ErrorIs(t, err, model.ErrInvalidLookup)
}

func TestListRecent_NewestFirstAndLimited(t *testing.T) {
	conn := openTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < HistoryLimit+5; i++ {
		_, err := AddLookup(conn, model.HistoryEntry{
			Request:    model.CityLookup("City"),
			AQIIndex:   1 + i%5,
			LookedUpAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := ListRecent(conn, 0)
	require.NoError(t, err)
	require.Len(t, entries, HistoryLimit)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].LookedUpAt.After(entries[i].LookedUpAt))
	}
	assert.True(t, base.Add(time.Duration(HistoryLimit+4)*time.Second).Equal(entries[0].LookedUpAt))

	few, err := ListRecent(conn, 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)
}

func TestDeleteAndRestoreLookup(t *testing.T) {
	conn := openTestDB(t)
	id, err := AddLookup(conn, model.HistoryEntry{Request: model.CityLookup("Oslo"), AQIIndex: 1})
	require.NoError(t, err)

	before, err := GetLookup(conn, id)
	require.NoError(t, err)

	require.NoError(t, DeleteLookup(conn, id))
	_, err = GetLookup(conn, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, RestoreLookup(conn, before))
	after, err := GetLookup(conn, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestClearHistory(t *testing.T) {
	conn := openTestDB(t)
	for _, city := range []string{"Lima", "Quito", "Bogota"} {
		_, err := AddLookup(conn, model.HistoryEntry{Request: model.CityLookup(city), AQIIndex: 2})
		require.NoError(t, err)
	}

	removed, err := ClearHistory(conn)
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	entries, err := ListRecent(conn, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, RestoreLookups(conn, removed))
	entries, err = ListRecent(conn, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
