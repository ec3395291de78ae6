// Package cleaning runs ordered cleaning recipes over a frame.Dataset.
//
// A Recipe is a YAML list of steps (dropna, fillna, to_datetime,
// to_numeric, set_value, clamp, drop_above, drop_duplicates). Recipes are
// built into a Registry and executed by a Runner, which opens one span per
// step, records the cleaning metrics and returns a Report.
package cleaning
