package download

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bnvault/internal/infrastructure"
	"bnvault/internal/source"
)

// SchedulerOptions configures one scheduler run.
type SchedulerOptions struct {
	Dest         string
	Interval     string
	MaxWorkers   int
	SkipExisted  bool
	KeepArchives bool
}

// Scheduler drives fetch, verify and extract for every unit of a run across
// a bounded worker pool. Each unit's three-stage pipeline runs to completion
// on a single worker; failures are isolated per unit and never halt the
// pool.
type Scheduler struct {
	opts    SchedulerOptions
	fetcher *Fetcher
}

// NewScheduler creates a scheduler dispatching to fetcher.
func NewScheduler(opts SchedulerOptions, fetcher *Fetcher) *Scheduler {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Scheduler{opts: opts, fetcher: fetcher}
}

// Enumerate generates the full work matrix for [start, end] inclusive,
// ordered by date, then data type, then symbol. The order is deterministic
// so work distribution is reproducible; execution order across the pool is
// not guaranteed.
func Enumerate(start, end time.Time, src source.Source, symbols, dataTypes []string) []WorkUnit {
	var units []WorkUnit
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		for _, dataType := range dataTypes {
			for _, symbol := range symbols {
				units = append(units, WorkUnit{
					Date:     date,
					Symbol:   symbol,
					DataType: dataType,
					Source:   src,
				})
			}
		}
	}
	return units
}

// Run processes every unit and returns the aggregated summary. The pool is
// always drained: a failing unit records its outcome and the remaining
// units keep going.
func (s *Scheduler) Run(ctx context.Context, units []WorkUnit) Summary {
	logger := infrastructure.LoggerWithContext(ctx)
	logger.Info("Starting download run",
		slog.Int("units", len(units)),
		slog.Int("max_workers", s.opts.MaxWorkers),
		slog.Bool("skip_existed", s.opts.SkipExisted))

	outcomes := make(map[WorkUnit]Outcome, len(units))
	var mu sync.Mutex

	// Workers convert every error into an outcome, so the group never
	// sees an error and sibling units are never cancelled.
	var g errgroup.Group
	g.SetLimit(s.opts.MaxWorkers)
	for _, unit := range units {
		g.Go(func() error {
			outcome := s.process(ctx, unit)
			mu.Lock()
			outcomes[unit] = outcome
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	summary := Summary{
		Counts:   make(map[Status]int),
		Outcomes: outcomes,
	}
	for _, outcome := range outcomes {
		summary.Counts[outcome.Status]++
	}

	logger.Info("Download run finished",
		slog.Int("total", summary.Total()),
		slog.Int("downloaded", summary.Counts[StatusDownloaded]),
		slog.Int("skipped", summary.Counts[StatusSkipped]),
		slog.Int("verification_failed", summary.Counts[StatusVerificationFailed]),
		slog.Int("network_errors", summary.Counts[StatusNetworkError]),
		slog.Int("extraction_failed", summary.Counts[StatusExtractionFailed]))

	return summary
}

// process runs one unit's fetch, verify, extract sequence and converts any
// error into a typed outcome at this boundary.
func (s *Scheduler) process(ctx context.Context, unit WorkUnit) Outcome {
	logger := infrastructure.LoggerWithContext(ctx)

	if s.opts.SkipExisted {
		for _, path := range unit.TerminalPaths(s.opts.Dest) {
			if _, err := os.Stat(path); err == nil {
				logger.Debug("Unit already present, skipping",
					slog.String("unit", unit.String()),
					slog.String("path", path))
				return Outcome{Unit: unit, Status: StatusSkipped, LocalPath: path}
			}
		}
	}

	pair, err := s.fetcher.Fetch(ctx, unit, s.opts.Interval, s.opts.Dest)
	if err != nil {
		logger.Error("Fetch failed",
			slog.String("unit", unit.String()),
			slog.String("error", err.Error()))
		return Outcome{Unit: unit, Status: StatusNetworkError, Err: err}
	}

	if err := Verify(pair); err != nil {
		logger.Error("Verification failed, discarding archive",
			slog.String("unit", unit.String()),
			slog.String("error", err.Error()))
		// A corrupt archive must never reach extraction.
		os.Remove(pair.ArchivePath)
		os.Remove(pair.ChecksumPath)
		return Outcome{Unit: unit, Status: StatusVerificationFailed, Err: err}
	}

	csvPath := unit.CSVPath(s.opts.Dest)
	if err := Extract(pair, csvPath, s.opts.KeepArchives); err != nil {
		logger.Error("Extraction failed",
			slog.String("unit", unit.String()),
			slog.String("error", err.Error()))
		return Outcome{Unit: unit, Status: StatusExtractionFailed, Err: err}
	}

	logger.Info("Unit downloaded",
		slog.String("unit", unit.String()),
		slog.String("path", csvPath))
	return Outcome{Unit: unit, Status: StatusDownloaded, LocalPath: csvPath}
}
