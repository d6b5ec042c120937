// Package batch runs the assembler over a directory tree of filing files with a
// bounded worker pool, writes each result with the export writer and records a
// processing_summary.json.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"edgar_extract/pkg/core/decode"
	"edgar_extract/pkg/core/export"
	"edgar_extract/pkg/core/pipeline"
	"edgar_extract/pkg/core/store"
	"edgar_extract/pkg/models"
)

// SummaryFile is written at the root of the output directory.
const SummaryFile = "processing_summary.json"

// File statuses in the summary.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped" // already parsed with the same content
)

// ErrNoFiles is returned when the input directory holds no matching files.
var ErrNoFiles = errors.New("no filing files found")

// Sink persists one filing result.
type Sink interface {
	Write(dir string, res *models.FilingResult) (*export.Manifest, error)
}

// Options configure a Runner.
type Options struct {
	Workers    int
	Pattern    string // glob matched against base names; "*.txt" when empty
	OutputDir  string
	SkipParsed bool                     // needs a tracker
	Ticker     func(path string) string // nil: no ticker
	Logger     *slog.Logger
}

// FileResult is one entry of the summary.
type FileResult struct {
	File      string           `json:"file"`
	Ticker    string           `json:"ticker,omitempty"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	OutputDir string           `json:"output_dir,omitempty"`
	Metadata  *export.Metadata `json:"metadata,omitempty"`
}

// Summary is the content of processing_summary.json.
type Summary struct {
	TotalFiles int          `json:"total_files"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Files      []FileResult `json:"files"`
}

// Runner processes filings concurrently. Each worker handles one whole filing.
type Runner struct {
	asm     *pipeline.Assembler
	sink    Sink
	tracker store.Tracker
	opts    Options
	logger  *slog.Logger
}

// NewRunner builds a Runner writing through sink. tracker may be nil.
func NewRunner(asm *pipeline.Assembler, sink Sink, tracker store.Tracker, opts Options) (*Runner, error) {
	if asm == nil {
		return nil, fmt.Errorf("batch: nil assembler")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Pattern == "" {
		opts.Pattern = "*.txt"
	}
	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("batch: bad pattern %q: %w", opts.Pattern, err)
	}
	if opts.SkipParsed && tracker == nil {
		return nil, fmt.Errorf("batch: skip parsed requires a tracker")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{asm: asm, sink: sink, tracker: tracker, opts: opts, logger: logger.With("component", "batch")}, nil
}

// Files lists the matching files under dir in lexical order.
func (r *Runner) Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(r.opts.Pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every matching file under inputDir. Canceling ctx stops
// scheduling new files; filings already started run to completion. The summary
// covers the files that were processed, and the error is ctx.Err() when the run
// was cut short.
func (r *Runner) Run(ctx context.Context, inputDir string) (*Summary, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", inputDir)
	}
	files, err := r.Files(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s matching %s", ErrNoFiles, inputDir, r.opts.Pattern)
	}

	r.logger.Info("batch started", "dir", inputDir, "files", len(files), "workers", r.opts.Workers)

	results := make([]*FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Started after ctx was canceled: leave it out.
			if err := ctx.Err(); err != nil {
				return err
			}
			res := r.processFile(ctx, path, r.outputDirFor(inputDir, path))
			results[i] = &res
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	summary := &Summary{Files: []FileResult{}}
	for _, res := range results {
		if res == nil {
			continue
		}
		summary.Files = append(summary.Files, *res)
		switch res.Status {
		case StatusSuccess:
			summary.Successful++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	summary.TotalFiles = len(summary.Files)

	if r.opts.OutputDir != "" {
		if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
			return summary, fmt.Errorf("create output dir: %w", err)
		}
		if err := export.WriteJSON(filepath.Join(r.opts.OutputDir, SummaryFile), summary); err != nil {
			return summary, err
		}
	}

	r.logger.Info("batch complete",
		"files", summary.TotalFiles,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, runErr
}

// outputDirFor mirrors the input layout: <out>/<rel dir>/<stem>_parsed.
func (r *Runner) outputDirFor(inputDir, path string) string {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	return filepath.Join(r.opts.OutputDir, filepath.Dir(rel), stem+"_parsed")
}

// ProcessFile runs one file and writes its result to outDir.
func (r *Runner) ProcessFile(ctx context.Context, path, outDir string) FileResult {
	return r.processFile(ctx, path, outDir)
}

func (r *Runner) processFile(ctx context.Context, path, outDir string) FileResult {
	fr := FileResult{File: path}
	if r.opts.Ticker != nil {
		fr.Ticker = r.opts.Ticker(path)
	}
	log := r.logger.With("file", path)
	fail := func(err error) FileResult {
		fr.Status, fr.Error = StatusFailed, err.Error()
		log.Error("filing failed", "error", err)
		return fr
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	key, hash := trackerKey(path), store.HashBytes(raw)
	if r.tracker != nil {
		if r.opts.SkipParsed {
			parsed, err := r.tracker.IsParsed(ctx, key, hash)
			if err != nil {
				return fail(err)
			}
			if parsed {
				fr.Status = StatusSkipped
				log.Debug("already parsed")
				return fr
			}
		}
		if err := r.tracker.Catalog(ctx, key, fr.Ticker, "", hash); err != nil {
			return fail(err)
		}
	}

	text, enc := decode.Bytes(raw, "")
	res, procErr := r.asm.Process(pipeline.Source{ID: path, Ticker: fr.Ticker, Text: text, Encoding: enc})
	md := export.MetadataOf(res)
	fr.Metadata = &md

	if procErr == nil && r.sink != nil && outDir != "" {
		if _, err := r.sink.Write(outDir, res); err != nil {
			// No output on disk: leave the filing unparsed so the next run retries it.
			if r.tracker != nil {
				if err := r.tracker.MarkUnparsed(ctx, key); err != nil {
					log.Warn("tracker update failed", "error", err)
				}
			}
			return fail(err)
		}
		fr.OutputDir = outDir
	}

	if r.tracker != nil {
		if err := r.tracker.MarkParsed(ctx, key, store.OutcomeOf(res)); err != nil {
			log.Warn("tracker update failed", "error", err)
		}
	}
	if procErr != nil {
		return fail(procErr)
	}
	fr.Status = StatusSuccess
	return fr
}

func trackerKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
