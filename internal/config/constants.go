package config

// Application constants
const (
	AppName    = "workoutcli"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. WORKOUT_DISPLAY_MAX_ROWS.
	EnvPrefix = "WORKOUT"

	DefaultInputFile = "data.csv"

	// Display defaults match the data frame conventions: frames longer than
	// 60 rows print the first and last 5.
	DefaultMaxRows  = 60
	DefaultMinRows  = 10
	DefaultHeadRows = 5

	// Workout cleaning defaults. Sessions longer than two hours are treated
	// as data-entry mistakes.
	DefaultDurationLimit = 120
	DefaultFillValue     = 130

	DefaultHistogramBins = 10
)
