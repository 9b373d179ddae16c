package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// recommendationBreak is the two-character marker the backend uses for line breaks.
const recommendationBreak = `\n`

// PollutantLabel turns a pollutant key into its display label.
// "pm2_5" -> "PM2.5", "no2" -> "NO2". Only the first underscore becomes a period.
func PollutantLabel(key string) string {
	return strings.Replace(strings.ToUpper(key), "_", ".", 1)
}

// FormatConcentration formats a concentration with exactly two decimals.
func FormatConcentration(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExpandLineBreaks replaces every literal backslash-n marker with a newline.
// Real newline characters are left alone.
func ExpandLineBreaks(s string) string {
	return strings.ReplaceAll(s, recommendationBreak, "\n")
}

// Weekday returns the full weekday name of a unix timestamp in loc.
func Weekday(unixSeconds int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unixSeconds, 0).In(loc).Weekday().String()
}

// FormatCoords formats a position for the status bar and history rows.
func FormatCoords(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

// FormatTimeHuman formats a timestamp with humanized relative display.
// "Just now", "5m ago", "3h ago", "Yesterday", "Jan 15", "Jan 15 '24"
func FormatTimeHuman(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	t = t.In(now.Location())

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case days == 0:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%dd ago", days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
