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
	"bnvault/internal/convert"
	"bnvault/internal/files"
	"bnvault/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML config file (defaults to "+config.DefaultConfigFile+")")
	sourceName := flag.String("source", "", "restrict to one market source (um or spot; defaults to all)")
	from := flag.String("from", "", "first date to convert, YYYY-MM-DD (defaults to everything on disk)")
	to := flag.String("to", "", "last date to convert, YYYY-MM-DD")
	symbols := flag.String("symbols", "", "comma-separated symbol filter")
	dataTypes := flag.String("types", "", "comma-separated data type filter")
	singleFile := flag.String("file", "", "convert one CSV file instead of scanning the tree (requires -type)")
	singleType := flag.String("type", "", "data type of the file given with -file")
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

	ctx, stop := signal.NotifyContext(infrastructure.ContextWithRunID(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := convert.NewEngine(cfg.RemoveSource)

	if *singleFile != "" {
		if *singleType == "" {
			logger.Error("-file requires -type")
			os.Exit(1)
		}
		if _, err := engine.Convert(ctx, *singleFile, *singleType); err != nil {
			logger.Error("Conversion failed",
				slog.String("path", *singleFile),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	filter, err := buildFilter(*sourceName, *from, *to, *symbols, *dataTypes)
	if err != nil {
		logger.Error("Invalid filter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	entries, err := files.NewDiscovery(cfg.Dest).Scan(filter)
	if err != nil {
		logger.Error("Failed to scan destination", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Starting converter",
		slog.String("dest", cfg.Dest),
		slog.Int("files", len(entries)))

	converted, failed := 0, 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			logger.Warn("Conversion interrupted",
				slog.Int("converted", converted),
				slog.Int("remaining", len(entries)-converted-failed))
			os.Exit(1)
		}
		if _, err := engine.Convert(ctx, entry.Path, entry.DataType); err != nil {
			failed++
			logger.Error("Conversion failed",
				slog.String("path", entry.Path),
				slog.String("error", err.Error()))
			continue
		}
		converted++
	}

	if failed > 0 {
		logger.Error("Conversion run finished with failures",
			slog.Int("converted", converted),
			slog.Int("failed", failed))
		os.Exit(1)
	}
	logger.Info("Conversion run finished", slog.Int("converted", converted))
}

// buildFilter turns the flag values into a CSV scan filter.
func buildFilter(source, from, to, symbols, dataTypes string) (files.Filter, error) {
	filter := files.Filter{
		Ext:       config.ExtCSV,
		Source:    source,
		Symbols:   splitList(symbols),
		DataTypes: splitList(dataTypes),
	}
	if from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return files.Filter{}, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		filter.Start = start
	}
	if to != "" {
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			return files.Filter{}, fmt.Errorf("invalid -to date %q: %w", to, err)
		}
		filter.End = end
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return files.Filter{}, fmt.Errorf("-to %s precedes -from %s", to, from)
	}
	return filter, nil
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
