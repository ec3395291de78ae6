// Package app provides command startup and shutdown for the workout tools.
// It handles configuration loading, path resolution, logging and
// OpenTelemetry initialization, and loading the input dataset.
//
// # Usage
//
// Every command in cmd/ follows the same shape:
//
//	ctx, cancel := app.Context()
//	defer cancel()
//
//	a, err := app.New("inspect")
//	if err != nil {
//	    slog.Error("Failed to start", "error", err)
//	    os.Exit(1)
//	}
//	defer a.Close(ctx)
//
//	ds, err := a.LoadDataset(ctx, *file, *sheet)
//
// # Telemetry
//
// Tracing and metrics are off unless enabled in the telemetry section of
// the configuration. When metrics are on, Close writes them to the
// configured Prometheus textfile.
package app
