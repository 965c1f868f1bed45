// Package files provides file system operations, discovery utilities and
// the table readers used by the integrator and the dashboards.
//
// This package contains three components:
//
// Reader: Loads CSV, workbook and colon-log text files into an untyped
// domain.Table. CSV input may carry a UTF-8 BOM or be Windows-1252 encoded.
//
// Discovery: Finds files by extension, such as the rendered
// dashboard pages served by the preview server.
//
// Writes: atomic file replacement and BLAKE2b content digests.
//
// Example usage:
//
//	tbl, err := files.ReadTable("csv_output/FRED_Data.csv")
//
//	discovery := files.NewDiscovery(paths.WorkDir)
//	pages, err := discovery.FindFilesByExt(".", ".html")
//
//	digest, err := files.Digest(paths.WorkbookFile)
package files
