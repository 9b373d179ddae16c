package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollutantLabel(t *testing.T) {
	tests := map[string]string{
		"pm2_5": "PM2.5",
		"pm10":  "PM10",
		"no2":   "NO2",
		"co":    "CO",
		"a_b_c": "A.B_C",
	}
	for key, want := range tests {
		assert.Equal(t, want, PollutantLabel(key), key)
	}
}

func TestFormatConcentration(t *testing.T) {
	assert.Equal(t, "12.30", FormatConcentration(12.3))
	assert.Equal(t, "0.00", FormatConcentration(0))
	assert.Equal(t, "201.94", FormatConcentration(201.94))
	assert.Equal(t, "1.01", FormatConcentration(1.005000001))
}

func TestExpandLineBreaks(t *testing.T) {
	got := ExpandLineBreaks(`Stay indoors.\nWear a mask.`)
	assert.Equal(t, "Stay indoors.\nWear a mask.", got)
	assert.NotContains(t, got, `\n`)

	// Real newlines pass through untouched.
	assert.Equal(t, "a\nb", ExpandLineBreaks("a\nb"))
}

func TestWeekday(t *testing.T) {
	// 2023-11-14 22:13:20 UTC
	assert.Equal(t, "Tuesday", Weekday(1700000000, time.UTC))

	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "Wednesday", Weekday(1700000000, tokyo))
}

func TestFormatTimeHuman(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", FormatTimeHuman(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", FormatTimeHuman(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatTimeHuman(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Yesterday", FormatTimeHuman(now.Add(-24*time.Hour), now))
	assert.Equal(t, "3d ago", FormatTimeHuman(now.Add(-72*time.Hour), now))
	assert.Equal(t, "Jan 02", FormatTimeHuman(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Jan 02 '23", FormatTimeHuman(time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Unknown", FormatTimeHuman(time.Time{}, now))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "New Yo...", TruncateString("New York City", 9))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}
