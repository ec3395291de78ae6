package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Display   DisplayConfig   `yaml:"display" envconfig:"DISPLAY"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Plot      PlotConfig      `yaml:"plot" envconfig:"PLOT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	PlotsDir   string `yaml:"plots_dir" envconfig:"PLOTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	InputFile  string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
}

// DisplayConfig controls how datasets are printed. MaxRows mirrors the
// display.max_rows option: longer frames are truncated to MinRows rows.
type DisplayConfig struct {
	MaxRows  int `yaml:"max_rows" envconfig:"MAX_ROWS" validate:"gte=0"`
	MinRows  int `yaml:"min_rows" envconfig:"MIN_ROWS" validate:"gte=2"`
	HeadRows int `yaml:"head_rows" envconfig:"HEAD_ROWS" validate:"gte=0"`
}

// CleaningConfig holds the defaults used by the built-in cleaning recipe.
type CleaningConfig struct {
	RecipeFile     string  `yaml:"recipe_file" envconfig:"RECIPE_FILE"`
	DurationColumn string  `yaml:"duration_column" envconfig:"DURATION_COLUMN" validate:"required"`
	DurationLimit  float64 `yaml:"duration_limit" envconfig:"DURATION_LIMIT" validate:"gt=0"`
	DateColumn     string  `yaml:"date_column" envconfig:"DATE_COLUMN"`
	FillColumn     string  `yaml:"fill_column" envconfig:"FILL_COLUMN"`
	FillStrategy   string  `yaml:"fill_strategy" envconfig:"FILL_STRATEGY" validate:"oneof=constant mean median mode"`
	FillValue      float64 `yaml:"fill_value" envconfig:"FILL_VALUE"`
}

// PlotConfig contains plot rendering defaults
type PlotConfig struct {
	WidthInches  float64 `yaml:"width_inches" envconfig:"WIDTH_INCHES" validate:"gt=0"`
	HeightInches float64 `yaml:"height_inches" envconfig:"HEIGHT_INCHES" validate:"gt=0"`
	Bins         int     `yaml:"bins" envconfig:"BINS" validate:"gte=1"`
	Format       string  `yaml:"format" envconfig:"FORMAT" validate:"oneof=png svg pdf"`
}

// TelemetryConfig toggles tracing and metrics output
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceFile     string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE" validate:"required_if=EnableMetrics true"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile is Load with an explicit YAML file instead of the search path.
func LoadFile(filePath string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(filePath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize lower-cases enumerations so env values like "DEBUG" validate.
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	c.Cleaning.FillStrategy = strings.ToLower(strings.TrimSpace(c.Cleaning.FillStrategy))
	c.Plot.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Plot.Format), "."))
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Display.MaxRows > 0 && c.Display.MinRows > c.Display.MaxRows {
		return fmt.Errorf("invalid configuration: display min_rows %d exceeds max_rows %d",
			c.Display.MinRows, c.Display.MaxRows)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"workout.yaml",
		"configs/workout.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/workoutcli.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			PlotsDir:   "plots",
			LogsDir:    "logs",
			InputFile:  DefaultInputFile,
		},
		Display: DisplayConfig{
			MaxRows:  DefaultMaxRows,
			MinRows:  DefaultMinRows,
			HeadRows: DefaultHeadRows,
		},
		Cleaning: CleaningConfig{
			DurationColumn: "Duration",
			DurationLimit:  DefaultDurationLimit,
			DateColumn:     "Date",
			FillColumn:     "Calories",
			FillStrategy:   "mean",
			FillValue:      DefaultFillValue,
		},
		Plot: PlotConfig{
			WidthInches:  6,
			HeightInches: 4,
			Bins:         DefaultHistogramBins,
			Format:       "png",
		},
		Telemetry: TelemetryConfig{
			Environment: "development",
			SampleRatio: 1.0,
			TraceFile:   "logs/traces.json",
			MetricsFile: "reports/metrics.prom",
		},
	}
}
