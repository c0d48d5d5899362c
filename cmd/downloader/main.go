package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bnvault/internal/config"
	"bnvault/internal/download"
	"bnvault/internal/infrastructure"
	"bnvault/internal/source"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML config file (defaults to "+config.DefaultConfigFile+")")
	sourceName := flag.String("source", "um", "market source to download (um or spot)")
	from := flag.String("from", "", "first date of the range, YYYY-MM-DD (required)")
	to := flag.String("to", "", "last date of the range, YYYY-MM-DD (defaults to -from)")
	symbols := flag.String("symbols", "", "comma-separated symbol override (defaults to the configured list)")
	dataTypes := flag.String("types", "", "comma-separated data type override (defaults to the configured list)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	src, err := source.Parse(*sourceName)
	if err != nil {
		logger.Error("Invalid source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	start, end, err := parseDateRange(*from, *to)
	if err != nil {
		logger.Error("Invalid date range", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srcCfg, err := cfg.Source(src.String())
	if err != nil {
		logger.Error("Source not configured", slog.String("error", err.Error()))
		os.Exit(1)
	}
	runSymbols := srcCfg.Symbols
	if list := splitList(*symbols); len(list) > 0 {
		runSymbols = list
	}
	runTypes := srcCfg.DataTypes
	if list := splitList(*dataTypes); len(list) > 0 {
		runTypes = list
	}

	ctx, stop := signal.NotifyContext(infrastructure.ContextWithRunID(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	units := download.Enumerate(start, end, src, runSymbols, runTypes)
	logger.Info("Starting downloader",
		slog.String("source", src.String()),
		slog.String("from", start.Format("2006-01-02")),
		slog.String("to", end.Format("2006-01-02")),
		slog.Int("symbols", len(runSymbols)),
		slog.Int("data_types", len(runTypes)),
		slog.Int("units", len(units)))

	fetcher := download.NewFetcher(cfg.RequestsPerSecond)
	scheduler := download.NewScheduler(download.SchedulerOptions{
		Dest:         cfg.Dest,
		Interval:     cfg.Interval,
		MaxWorkers:   cfg.MaxWorkers,
		SkipExisted:  cfg.SkipExisted,
		KeepArchives: cfg.KeepArchives,
	}, fetcher)

	summary := scheduler.Run(ctx, units)
	for status, count := range summary.Counts {
		logger.Info("Run outcome",
			slog.String("status", status.String()),
			slog.Int("count", count))
	}

	if failures := summary.Failures(); failures > 0 {
		logger.Error("Download run finished with failures",
			slog.Int("failed", failures),
			slog.Int("total", summary.Total()))
		os.Exit(1)
	}
	logger.Info("Download run finished", slog.Int("total", summary.Total()))
}

// parseDateRange parses the -from/-to pair. An empty -to means a single-day
// range.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	if from == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-from is required")
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from date %q: %w", from, err)
	}
	if to == "" {
		return start, start, nil
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to date %q: %w", to, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to %s precedes -from %s", to, from)
	}
	return start, end, nil
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
