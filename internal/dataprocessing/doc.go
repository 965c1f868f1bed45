// Package dataprocessing turns raw collector tables into monthly time series
// and computes the comparisons shown on the dashboards.
//
// # Architecture
//
// The package has two parts:
//
// 1. Parser: a layout-kind dispatch that reads compact tokens, wide agency
// tables, colon-delimited logs and named-column tables into TimeSeriesRecords
// 2. Calculator: sorts a category's records and resolves the latest value,
// the prior-period reference and the year-ago reference
//
// # Usage
//
//	records, err := dataprocessing.ParseTable(table, dataprocessing.ParseOptions{
//	    Layout:    dataprocessing.LayoutCompactToken,
//	    Category:  "Tire Cord PPI",
//	    SourceTag: "FRED",
//	})
//	if err != nil {
//	    return err
//	}
//	results := dataprocessing.NewCalculator(dataprocessing.PriorRecord).CompareAll(records)
//
// # Error Handling
//
// Malformed rows and cells are dropped without error. ParseTable only fails
// when the table lacks a column the layout requires or the layout is unknown.
// The calculator never fails; unresolved references are nil.
package dataprocessing
