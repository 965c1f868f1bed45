// Package publish mirrors the Summary sheet of each run into a Google
// Sheets spreadsheet.
package publish
