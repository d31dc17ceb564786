// Package batch parses several ELF files in one run and summarises the
// outcome per file.
package batch

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/elfparse"
	"github.com/ducdatdau/dump-elf/internal/utils"
)

// Status is the outcome of parsing one file
type Status string

const (
	StatusParsed  Status = "parsed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ErrSkipped is recorded for paths left unparsed after a fail-fast stop
var ErrSkipped = errors.New("skipped after an earlier failure")

// FileParser is the part of elfparse.Parser the runner depends on
type FileParser interface {
	ParseFile(path string, mode bytesource.Mode) (*elfparse.File, error)
}

// Result holds the outcome for one path. File may be non-nil even when
// Err is set: it then holds what was decoded before the failure.
type Result struct {
	Path     string
	Status   Status
	File     *elfparse.File
	Err      error
	Duration time.Duration
}

// Summary contains the per-file results and their totals
type Summary struct {
	Results []Result
	Total   int
	Parsed  int
	Failed  int
	Skipped int
}

// OK reports whether every file parsed cleanly
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Skipped == 0
}

// Runner parses files one after another
type Runner struct {
	parser   FileParser
	mode     bytesource.Mode
	failFast bool
	log      *logrus.Entry
}

// Option configures a Runner
type Option func(*Runner)

// WithFailFast stops the run after the first failure; remaining paths are
// reported as skipped
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithSourceMode selects how files are opened
func WithSourceMode(mode bytesource.Mode) Option {
	return func(r *Runner) {
		r.mode = mode
	}
}

// WithLogger sets the logger used for per-file outcomes
func WithLogger(logger *utils.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.log = logger.WithComponent("batch")
		}
	}
}

// NewRunner creates a runner over parser
func NewRunner(parser FileParser, opts ...Option) *Runner {
	r := &Runner{
		parser: parser,
		mode:   bytesource.ModeFile,
		log:    utils.NewDiscardLogger().WithComponent("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run parses every path in order
func (r *Runner) Run(paths []string) *Summary {
	results := make([]Result, 0, len(paths))
	stopped := false

	for _, path := range paths {
		if stopped {
			results = append(results, Result{Path: path, Status: StatusSkipped, Err: ErrSkipped})
			continue
		}

		result := r.runOne(path)
		results = append(results, result)

		if result.Status == StatusFailed && r.failFast {
			r.log.WithField("path", path).Warn("Stopping after first failure")
			stopped = true
		}
	}

	return summarize(results)
}

func (r *Runner) runOne(path string) Result {
	start := time.Now()
	file, err := r.parser.ParseFile(path, r.mode)
	result := Result{
		Path:     path,
		File:     file,
		Err:      err,
		Duration: time.Since(start),
		Status:   StatusParsed,
	}

	entry := r.log.WithFields(logrus.Fields{
		"path":     path,
		"duration": result.Duration,
	})
	if err != nil {
		result.Status = StatusFailed
		entry.WithError(err).Error("Failed to parse file")
	} else {
		entry.WithField("segments", len(file.ProgramHeaders)).Info("Parsed file")
	}

	return result
}

// summarize calculates summary statistics from results
func summarize(results []Result) *Summary {
	summary := &Summary{Results: results, Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusParsed:
			summary.Parsed++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}

	return summary
}
