package exporter

import (
	"math"
	"strconv"
	"time"

	"pricepulse/internal/config"
)

// formatTimestamp formats a time the way every Generated_At cell is written
func formatTimestamp(t time.Time) string {
	return t.Format(config.TimestampLayout)
}

// formatInt formats an int value for a cell
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// cellValue returns a float64 for cells that round-trip exactly as a
// number, so numeric columns stay numeric in the workbook. Everything else,
// including zero-padded codes, stays a string.
func cellValue(s string) interface{} {
	if s == "" {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != s {
		return s
	}
	return f
}
