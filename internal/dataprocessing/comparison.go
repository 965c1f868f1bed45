package dataprocessing

import (
	"sort"

	"pricepulse/pkg/contracts/domain"
)

// PriorMode selects how the prior-period reference is resolved
type PriorMode string

const (
	// PriorRecord compares against the immediately preceding record, whatever
	// its calendar month. Gaps in the series make this span more than a month.
	PriorRecord PriorMode = "record"
	// PriorCalendar compares against the preceding calendar month by exact lookup
	PriorCalendar PriorMode = "calendar"
)

// ParsePriorMode maps a flag value to a PriorMode, defaulting to PriorRecord
func ParsePriorMode(s string) PriorMode {
	if PriorMode(s) == PriorCalendar {
		return PriorCalendar
	}
	return PriorRecord
}

// Calculator computes latest, prior-period and year-ago comparisons
type Calculator struct {
	mode PriorMode
}

// NewCalculator creates a calculator using the given prior-period mode
func NewCalculator(mode PriorMode) *Calculator {
	if mode != PriorCalendar {
		mode = PriorRecord
	}
	return &Calculator{mode: mode}
}

// Mode returns the prior-period mode in use
func (c *Calculator) Mode() PriorMode {
	return c.mode
}

// Compare computes the comparison for the records of a single category.
// ok is false when there are no records.
func (c *Calculator) Compare(records []domain.TimeSeriesRecord) (domain.ComparisonResult, bool) {
	series := SortSeries(records)
	if len(series) == 0 {
		return domain.ComparisonResult{}, false
	}

	latest := series[len(series)-1]
	result := domain.ComparisonResult{
		Category: latest.Category,
		Latest: domain.LatestPoint{
			Year:  latest.Year,
			Month: latest.Month,
			Value: latest.Value,
		},
	}

	var prior *float64
	if c.mode == PriorCalendar {
		prior = CalendarPriorValue(series)
	} else {
		prior = PriorRecordValue(series)
	}
	result.PriorMonth = reference(latest.Value, prior)
	result.YearAgo = reference(latest.Value, YearAgoValue(series))
	return result, true
}

// CompareAll groups records by category in first-seen order and compares
// each category independently
func (c *Calculator) CompareAll(records []domain.TimeSeriesRecord) []domain.ComparisonResult {
	order, groups := GroupByCategory(records)
	results := make([]domain.ComparisonResult, 0, len(order))
	for _, category := range order {
		if result, ok := c.Compare(groups[category]); ok {
			results = append(results, result)
		}
	}
	return results
}

// SortSeries returns the records ordered by (year, month) ascending with
// duplicate months collapsed to the last-seen record
func SortSeries(records []domain.TimeSeriesRecord) []domain.TimeSeriesRecord {
	index := make(map[domain.MonthKey]int, len(records))
	series := make([]domain.TimeSeriesRecord, 0, len(records))
	for _, rec := range records {
		if i, seen := index[rec.Key()]; seen {
			series[i] = rec
			continue
		}
		index[rec.Key()] = len(series)
		series = append(series, rec)
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Key().Before(series[j].Key())
	})
	return series
}

// GroupByCategory splits records per category, preserving first-seen order
func GroupByCategory(records []domain.TimeSeriesRecord) ([]string, map[string][]domain.TimeSeriesRecord) {
	order := make([]string, 0)
	groups := make(map[string][]domain.TimeSeriesRecord)
	for _, rec := range records {
		if _, ok := groups[rec.Category]; !ok {
			order = append(order, rec.Category)
		}
		groups[rec.Category] = append(groups[rec.Category], rec)
	}
	return order, groups
}

// PriorRecordValue returns the second-to-last value of a sorted series
func PriorRecordValue(series []domain.TimeSeriesRecord) *float64 {
	if len(series) < 2 {
		return nil
	}
	v := series[len(series)-2].Value
	return &v
}

// CalendarPriorValue looks up the month before the latest record of a sorted series
func CalendarPriorValue(series []domain.TimeSeriesRecord) *float64 {
	if len(series) == 0 {
		return nil
	}
	return lookup(series, series[len(series)-1].Key().Previous())
}

// YearAgoValue looks up the same month one year before the latest record
func YearAgoValue(series []domain.TimeSeriesRecord) *float64 {
	if len(series) == 0 {
		return nil
	}
	return lookup(series, series[len(series)-1].Key().YearAgo())
}

func lookup(series []domain.TimeSeriesRecord, key domain.MonthKey) *float64 {
	for i := range series {
		if series[i].Key() == key {
			v := series[i].Value
			return &v
		}
	}
	return nil
}

// PctChange returns (latest-ref)/ref*100. A nil or exactly zero reference
// yields nil, matching the falsy check of the historical reports.
func PctChange(latest float64, ref *float64) *float64 {
	if ref == nil || *ref == 0 {
		return nil
	}
	v := (latest - *ref) / *ref * 100
	return &v
}

func reference(latest float64, ref *float64) domain.Reference {
	return domain.Reference{
		Value:     ref,
		PctChange: PctChange(latest, ref),
	}
}
