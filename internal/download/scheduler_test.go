package download

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnvault/internal/source"
)

func TestEnumerate_Order(t *testing.T) {
	start := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	units := Enumerate(start, end, source.UM, []string{"BTCUSDT", "ETHUSDT"}, []string{"klines", "bookDepth"})

	require.Len(t, units, 8)
	// Ordered by date, then data type, then symbol.
	assert.Equal(t, "um/2025-03-07/klines/BTCUSDT", units[0].String())
	assert.Equal(t, "um/2025-03-07/klines/ETHUSDT", units[1].String())
	assert.Equal(t, "um/2025-03-07/bookDepth/BTCUSDT", units[2].String())
	assert.Equal(t, "um/2025-03-07/bookDepth/ETHUSDT", units[3].String())
	assert.Equal(t, "um/2025-03-08/klines/BTCUSDT", units[4].String())

	// Enumeration is deterministic across calls.
	again := Enumerate(start, end, source.UM, []string{"BTCUSDT", "ETHUSDT"}, []string{"klines", "bookDepth"})
	assert.Equal(t, units, again)
}

func TestEnumerate_SingleDay(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	units := Enumerate(day, day, source.Spot, []string{"BTCUSDT"}, []string{"aggTrades"})
	require.Len(t, units, 1)
	assert.Equal(t, day, units[0].Date)
}

func TestScheduler_Run(t *testing.T) {
	ep := newEndpoint()
	server := httptest.NewServer(ep)
	defer server.Close()

	units := Enumerate(
		time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		source.UM,
		[]string{"BTCUSDT", "ETHUSDT"},
		[]string{"metrics"},
	)
	for _, unit := range units {
		ep.publish(unit, "1m", buildArchive(t, unit.Symbol+".csv", "create_time,symbol\n"))
	}

	dest := t.TempDir()
	sched := NewScheduler(SchedulerOptions{
		Dest:       dest,
		Interval:   "1m",
		MaxWorkers: 2,
	}, NewFetcher(0, WithBaseURL(server.URL)))

	summary := sched.Run(context.Background(), units)

	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, 2, summary.Counts[StatusDownloaded])
	assert.Zero(t, summary.Failures())

	for _, unit := range units {
		assert.FileExists(t, unit.CSVPath(dest))
		// Archives pruned by default after extraction.
		assert.NoFileExists(t, unit.ArchivePath(dest))
	}
}

func TestScheduler_SkipExistedNoNetwork(t *testing.T) {
	ep := newEndpoint()
	server := httptest.NewServer(ep)
	defer server.Close()

	unit := testUnit("metrics")
	dest := t.TempDir()

	// Pre-existing extracted CSV in terminal form.
	csv := unit.CSVPath(dest)
	require.NoError(t, os.MkdirAll(filepath.Dir(csv), 0o755))
	require.NoError(t, os.WriteFile(csv, []byte("create_time,symbol\n"), 0o644))

	sched := NewScheduler(SchedulerOptions{
		Dest:        dest,
		Interval:    "1m",
		MaxWorkers:  1,
		SkipExisted: true,
	}, NewFetcher(0, WithBaseURL(server.URL)))

	summary := sched.Run(context.Background(), []WorkUnit{unit})

	assert.Equal(t, 1, summary.Counts[StatusSkipped])
	assert.Equal(t, int64(0), ep.requests.Load(), "skip-existed must perform zero network calls")
}

func TestScheduler_CorruptUnitIsIsolated(t *testing.T) {
	ep := newEndpoint()
	server := httptest.NewServer(ep)
	defer server.Close()

	units := Enumerate(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		source.UM,
		[]string{"BTCUSDT"},
		[]string{"metrics"},
	)
	require.Len(t, units, 10)

	for _, unit := range units {
		ep.publish(unit, "1m", buildArchive(t, unit.Symbol+".csv", "create_time,symbol\n"))
	}

	// Corrupt one unit's published checksum.
	bad := units[3]
	badURL := source.ChecksumURL(bad.Source, bad.DataType, bad.Symbol, "1m", bad.Date)
	badPath := badURL[len(bad.Source.BaseURL()):]
	ep.files[badPath] = []byte("0000000000000000000000000000000000000000000000000000000000000000  BTCUSDT.zip\n")

	dest := t.TempDir()
	sched := NewScheduler(SchedulerOptions{
		Dest:       dest,
		Interval:   "1m",
		MaxWorkers: 4,
	}, NewFetcher(0, WithBaseURL(server.URL)))

	summary := sched.Run(context.Background(), units)

	assert.Equal(t, 10, summary.Total())
	assert.Equal(t, 9, summary.Counts[StatusDownloaded])
	assert.Equal(t, 1, summary.Counts[StatusVerificationFailed])
	assert.Equal(t, 1, summary.Failures())

	// The corrupt unit's archive was discarded, never extracted.
	assert.NoFileExists(t, bad.CSVPath(dest))
	assert.NoFileExists(t, bad.ArchivePath(dest))

	outcome := summary.Outcomes[bad]
	assert.Equal(t, StatusVerificationFailed, outcome.Status)
	require.Error(t, outcome.Err)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "downloaded", StatusDownloaded.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "verification_failed", StatusVerificationFailed.String())
	assert.Equal(t, "network_error", StatusNetworkError.String())
	assert.Equal(t, "extraction_failed", StatusExtractionFailed.String())

	assert.True(t, StatusDownloaded.Success())
	assert.True(t, StatusSkipped.Success())
	assert.False(t, StatusNetworkError.Success())
}
