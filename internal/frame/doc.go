// Package frame wraps a gota data frame with the row labels and column kinds
// a workout log needs.
//
// A Dataset is immutable from the caller's point of view: every cleaning
// operation returns a new *Dataset and leaves its receiver untouched. Doing
// something "in place" is plain reassignment:
//
//	ds, err := frame.LoadCSV("data.csv")
//	if err != nil {
//	    return err
//	}
//	ds, err = ds.DropNA(frame.DropOptions{Subset: []string{"Date"}})
//
// # Row labels
//
// Each row keeps the 0-based position it had when the file was loaded. Rows
// removed by DropNA, DropAbove or DropDuplicates leave gaps in the labels and
// SetValue addresses rows by label, not by position.
//
// # Missing values
//
// Empty cells and the markers NA, NaN and <nil> load as missing. Statistics
// skip missing cells and imputation only ever writes to them.
//
// # Datetime columns
//
// gota has no time type, so ToDatetime stores normalized strings and the
// Dataset records which columns hold them. Kind and DType report such columns
// as datetime and Times parses them back.
package frame
