// Package integrator runs the collector steps and merges their outputs into
// the integrated workbook.
//
// Collectors run one after another through the operations manager. After
// each successful step its output files are read, tagged with provenance
// columns and appended to the sheet the collector writes to. When every
// step has finished the workbook is written with a Summary sheet first and
// one sheet per distinct sheet name in collector order.
//
// A failing collector never stops the run. Only a failure to assemble the
// workbook is returned as an error.
package integrator
