// Package config provides centralized configuration management for workoutcli.
// It loads settings from defaults, an optional YAML file and the environment,
// validates them, and resolves the directories the commands read and write.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML file: $WORKOUT_CONFIG, ./workout.yaml or ./configs/workout.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern WORKOUT_<SECTION>_<FIELD>:
//
//	WORKOUT_DISPLAY_MAX_ROWS=9999
//	WORKOUT_LOGGING_LEVEL=debug
//	WORKOUT_CLEANING_DURATION_LIMIT=120
//	WORKOUT_PATHS_INPUT_FILE=data.csv
//
// # Paths
//
// Paths are resolved against PathsConfig.BaseDir (the working directory when
// empty). Directories are created lazily by EnsureDirectories.
package config
