// Command edgar-parse extracts sections and tables from EDGAR full-text filings,
// one file or a directory tree at a time.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"edgar_extract/pkg/core/batch"
	"edgar_extract/pkg/core/config"
	"edgar_extract/pkg/core/export"
	"edgar_extract/pkg/core/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	fs := pflag.CommandLine
	config.DefineFlags(fs)
	file := fs.String("file", "", "Parse a single filing .txt file")
	dir := fs.String("dir", "", "Parse every matching filing under a directory")
	ticker := fs.String("ticker", "", "Ticker for every filing (default: derived from TICKER/FORM/file.txt)")
	stats := fs.Bool("stats", false, "Print tracker statistics and exit")
	unparsed := fs.Bool("list-unparsed", false, "List tracked filings not yet parsed and exit")
	fs.Usage = config.Usage(fs, "edgar-parse", "EDGAR full-text filing extractor",
		"--file AAPL/10-K/0000320193-23-000106.txt",
		"--dir filings --workers 8 --output parsed",
		"--dir filings --tracker sqlite --dsn tracker.db --skip-parsed",
		"--stats --tracker sqlite --dsn tracker.db",
	)
	pflag.Parse()

	settings, cfgPath, err := config.FromFlags(fs)
	if err != nil {
		return err
	}
	logger := settings.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tracker store.Tracker
	if settings.Tracker.Driver != config.TrackerNone {
		tracker, err = store.Open(ctx, settings.Tracker.Driver, settings.Tracker.DSN)
		if err != nil {
			return fmt.Errorf("open tracker: %w", err)
		}
		defer tracker.Close()
	}

	if *stats || *unparsed {
		if tracker == nil {
			return fmt.Errorf("--stats and --list-unparsed need --tracker")
		}
		if *stats {
			st, err := tracker.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(st)
		}
		list, err := tracker.Unparsed(ctx, *ticker)
		if err != nil {
			return err
		}
		return printJSON(list)
	}

	if (*file == "") == (*dir == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of --file or --dir is required")
	}

	asm, err := settings.NewAssembler(logger)
	if err != nil {
		return err
	}
	writer := export.NewWriter(export.Options{
		Markdown:     settings.Output.Markdown,
		HTML:         settings.Output.HTML,
		SectionFiles: true,
		Logger:       logger,
	})

	tickerFor := settings.TickerFor
	if *ticker != "" {
		tickerFor = func(string) string { return *ticker }
	}
	runner, err := batch.NewRunner(asm, writer, tracker, batch.Options{
		Workers:    settings.Batch.MaxWorkers,
		Pattern:    settings.Batch.Pattern,
		OutputDir:  settings.Output.Dir,
		SkipParsed: settings.Batch.SkipParsed,
		Ticker:     tickerFor,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if *file != "" {
		stem := strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
		res := runner.ProcessFile(ctx, *file, filepath.Join(settings.Output.Dir, stem+"_parsed"))
		if err := printJSON(res); err != nil {
			return err
		}
		if res.Status == batch.StatusFailed {
			return fmt.Errorf("%s: %s", *file, res.Error)
		}
		return nil
	}

	summary, err := runner.Run(ctx, *dir)
	if summary != nil {
		fmt.Printf("Processed %d files: %d successful, %d failed, %d skipped\n",
			summary.TotalFiles, summary.Successful, summary.Failed, summary.Skipped)
		if settings.Output.Dir != "" {
			fmt.Printf("Summary saved to %s\n", filepath.Join(settings.Output.Dir, batch.SummaryFile))
		}
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
