package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths, resolved against a base directory.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	PlotsDir   string
	LogsDir    string
	InputFile  string
}

// GetPaths resolves the configured directories. Relative entries are joined
// to BaseDir, which itself defaults to the working directory.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	dataDir := resolve(cfg.DataDir)
	paths := &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		ReportsDir: resolve(cfg.ReportsDir),
		PlotsDir:   resolve(cfg.PlotsDir),
		LogsDir:    resolve(cfg.LogsDir),
	}
	paths.InputFile = paths.ResolveInput(cfg.InputFile)

	return paths, nil
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ReportsDir,
		p.PlotsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// ResolveInput locates an input file. Absolute paths are returned unchanged;
// relative names are looked up in the base directory first, then in DataDir.
func (p *Paths) ResolveInput(name string) string {
	if name == "" {
		name = DefaultInputFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	direct := filepath.Join(p.BaseDir, name)
	if FileExists(direct) {
		return direct
	}
	return filepath.Join(p.DataDir, name)
}

// GetReportPath returns the full path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetPlotPath returns the full path for a rendered plot
func (p *Paths) GetPlotPath(filename string) string {
	return filepath.Join(p.PlotsDir, filename)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
