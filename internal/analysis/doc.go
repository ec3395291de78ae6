// Package analysis computes summary statistics over a frame.Dataset:
// pairwise correlation matrices and per-column descriptions. Non-numeric
// columns are ignored throughout.
package analysis
