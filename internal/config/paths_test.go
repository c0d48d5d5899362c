package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathDerivationIsDeterministic(t *testing.T) {
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	// Two independently constructed identical units must resolve to the
	// same paths.
	a := ArchivePath("/data", "um", date, "klines", "BTCUSDT")
	b := ArchivePath("/data", "um", time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), "klines", "BTCUSDT")

	assert.Equal(t, a, b)
}

func TestPathLayout(t *testing.T) {
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "archive",
			got:      ArchivePath("/data", "um", date, "bookDepth", "ETHUSDT"),
			expected: filepath.Join("/data", "um", "2025", "01", "02", "bookDepth", "ETHUSDT.zip"),
		},
		{
			name:     "checksum sidecar",
			got:      ChecksumPath("/data", "um", date, "bookDepth", "ETHUSDT"),
			expected: filepath.Join("/data", "um", "2025", "01", "02", "bookDepth", "ETHUSDT.zip.CHECKSUM"),
		},
		{
			name:     "extracted csv",
			got:      CSVPath("/data", "spot", date, "aggTrades", "BTCUSDT"),
			expected: filepath.Join("/data", "spot", "2025", "01", "02", "aggTrades", "BTCUSDT.csv"),
		},
		{
			name:     "converted parquet",
			got:      ParquetPath("/data", "um", date, "klines", "BTCUSDT"),
			expected: filepath.Join("/data", "um", "2025", "01", "02", "klines", "BTCUSDT.parquet"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestPathInjectivity(t *testing.T) {
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	// Distinct units must never share an output path.
	seen := map[string]bool{}
	for _, source := range []string{"um", "spot"} {
		for _, dataType := range []string{"klines", "aggTrades"} {
			for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
				p := ArchivePath("/data", source, date, dataType, symbol)
				assert.False(t, seen[p], "duplicate path %s", p)
				seen[p] = true
			}
		}
	}
}

func TestTerminalPaths(t *testing.T) {
	date := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	paths := TerminalPaths("/data", "um", date, "metrics", "BTCUSDT")

	assert.Len(t, paths, 3)
	assert.Equal(t, ArchivePath("/data", "um", date, "metrics", "BTCUSDT"), paths[0])
	assert.Equal(t, CSVPath("/data", "um", date, "metrics", "BTCUSDT"), paths[1])
	assert.Equal(t, ParquetPath("/data", "um", date, "metrics", "BTCUSDT"), paths[2])
}
