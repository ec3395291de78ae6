// Package exporter writes datasets and analysis results to disk.
//
// CSVWriter covers plain CSV output with an optional UTF-8 BOM for Excel,
// appending and streaming. ExcelWriter builds a workbook with one sheet for
// the data, the correlation matrix and the summary statistics.
//
// Relative paths are resolved against the reports directory:
//
//	writer := exporter.NewCSVWriter(paths)
//	err := writer.WriteDataset("cleaned.csv", ds, exporter.DatasetOptions{BOMPrefix: true})
package exporter
