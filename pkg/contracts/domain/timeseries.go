package domain

import (
	"fmt"
)

// TimeSeriesRecord is one monthly observation of a named series
type TimeSeriesRecord struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Value     float64 `json:"value"`
	Category  string  `json:"category"`
	SourceTag string  `json:"source_tag,omitempty"`
}

// Key returns the calendar key of the record
func (r TimeSeriesRecord) Key() MonthKey {
	return MonthKey{Year: r.Year, Month: r.Month}
}

// MonthKey identifies a calendar month
type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Label formats the key as the chart axis label "YYYY-MM"
func (k MonthKey) Label() string {
	return fmt.Sprintf("%d-%02d", k.Year, k.Month)
}

// Before reports whether k sorts strictly before other
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Previous returns the preceding calendar month
func (k MonthKey) Previous() MonthKey {
	if k.Month <= 1 {
		return MonthKey{Year: k.Year - 1, Month: 12}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// YearAgo returns the same month one year earlier
func (k MonthKey) YearAgo() MonthKey {
	return MonthKey{Year: k.Year - 1, Month: k.Month}
}

// LatestPoint is the most recent observation of a category
type LatestPoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// Reference is a comparison reference point. Both fields are nil when
// the reference could not be resolved.
type Reference struct {
	Value     *float64 `json:"value"`
	PctChange *float64 `json:"pct_change"`
}

// Present reports whether the reference value was found
func (r Reference) Present() bool {
	return r.Value != nil
}

// ComparisonResult carries latest, prior-period and year-ago figures for one category
type ComparisonResult struct {
	Category   string      `json:"category"`
	Latest     LatestPoint `json:"latest"`
	PriorMonth Reference   `json:"prior_month"`
	YearAgo    Reference   `json:"year_ago"`
}

// ChartPoint is one point of the inlined chart payload
type ChartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Direction is the tri-state movement indicator shown on summary cards
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DirectionOf classifies a change. Nil and zero are both flat.
func DirectionOf(change *float64) Direction {
	switch {
	case change == nil:
		return DirectionFlat
	case *change > 0:
		return DirectionUp
	case *change < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}
