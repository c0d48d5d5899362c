package convert

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"bnvault/internal/infrastructure"
	"bnvault/internal/schema"
)

// Engine converts one extracted tabular file at a time. It holds no state
// across conversions; conversion shares nothing with the downloader and can
// run long after the download phase.
type Engine struct {
	removeSource bool
}

// NewEngine creates a conversion engine. When removeSource is true the
// input CSV is deleted after its Parquet output has been written.
func NewEngine(removeSource bool) *Engine {
	return &Engine{removeSource: removeSource}
}

// Convert loads the extracted file, applies reshape, casting and renaming
// per the data type's registered schema, and writes the typed columnar
// output alongside the input. It returns the output path.
func (e *Engine) Convert(ctx context.Context, csvPath, dataType string) (string, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	ts, err := schema.Lookup(dataType)
	if err != nil {
		return "", err
	}

	raw, err := LoadCSV(csvPath)
	if err != nil {
		return "", err
	}

	if ts.Pivot != nil {
		raw, err = Pivot(raw, ts.Pivot)
		if err != nil {
			return "", err
		}
	}

	typed, err := Cast(raw, ts)
	if err != nil {
		return "", err
	}
	typed.Rename()

	outPath := strings.TrimSuffix(csvPath, ".csv") + ".parquet"
	if err := writeParquet(outPath, typed); err != nil {
		return "", err
	}

	logger.Info("Converted file",
		slog.String("input", csvPath),
		slog.String("output", outPath),
		slog.String("data_type", dataType),
		slog.Int("rows", len(typed.Rows)))

	if e.removeSource {
		if err := os.Remove(csvPath); err != nil {
			logger.Warn("Failed to remove source file",
				slog.String("path", csvPath),
				slog.String("error", err.Error()))
		}
	}
	return outPath, nil
}
