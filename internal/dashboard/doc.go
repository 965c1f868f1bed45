// Package dashboard builds the month-over-month and year-over-year HTML
// dashboards from the exported CSV files.
//
// A Family names its input files and how each is parsed, the display
// precision of its values and its output file. Run reads every input,
// compares the latest observation of each category with its prior period
// and its year-ago month, then renders one self-contained page: a summary
// card per category and a Chart.js line chart fed by inlined JSON. With
// Options.Snapshot the page also carries a static PNG of the chart inside
// <noscript>.
//
// RunCLI wraps Run for the per-family commands and maps errors to exit
// codes.
package dashboard
