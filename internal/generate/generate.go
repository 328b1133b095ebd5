// Package generate writes resolved sources to an output tree, one file per
// pipeline entry.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/reqaz/internal/foundation/errors"
	"git.home.luguber.info/inful/reqaz/internal/logfields"
	"git.home.luguber.info/inful/reqaz/internal/metrics"
	"git.home.luguber.info/inful/reqaz/internal/source"
)

// Policy decides what a failed entry does to the batch.
type Policy string

const (
	// PolicySkip logs each failed entry and reports success for the batch.
	PolicySkip Policy = "skip"
	// PolicyFail still attempts every entry, then returns the joined failures.
	PolicyFail Policy = "fail"
)

// ParsePolicy accepts "", "skip" and "fail". Empty means PolicySkip.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", ferrors.ValidationError("invalid failure policy").
			WithContext("on_error", s).
			WithContext("allowed", []string{string(PolicySkip), string(PolicyFail)}).
			Build()
	}
}

// ErrOutputEscapes marks entries whose output path leaves the output directory.
var ErrOutputEscapes = errors.New("output path escapes output directory")

// Entry maps one input source to an output path relative to the output directory.
type Entry struct {
	Input  string
	Output string
}

// Resolver is the part of source.Resolver the generator needs.
type Resolver interface {
	ResolveSource(ctx context.Context, uri string) (*source.ResolvedSource, error)
}

// EntryResult is the outcome of one entry.
type EntryResult struct {
	Input    string
	Output   string
	Path     string
	Bytes    int
	Err      error
	Duration time.Duration
}

// Report summarizes a run. Results keep the order of the input entries.
type Report struct {
	Generated int
	Failed    int
	Results   []EntryResult
	Duration  time.Duration
}

// Failures returns the results of failed entries.
func (r *Report) Failures() []EntryResult {
	var out []EntryResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Generator runs pipeline entries against a resolver.
type Generator struct {
	resolver  Resolver
	outputDir string
	policy    Policy
	workers   int
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

func WithPolicy(p Policy) Option {
	return func(g *Generator) {
		if p != "" {
			g.policy = p
		}
	}
}

// WithWorkers bounds the number of entries processed concurrently. Values
// below one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = metrics.OrNoop(rec) }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New builds a generator writing below outputDir.
func New(resolver Resolver, outputDir string, opts ...Option) (*Generator, error) {
	if resolver == nil {
		return nil, ferrors.InternalError("generator requires a resolver").Build()
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, ferrors.ConfigError("output directory is required").Build()
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").
			Fatal().WithContext("output_dir", outputDir).Build()
	}
	g := &Generator{
		resolver:  resolver,
		outputDir: abs,
		policy:    PolicySkip,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers < 1 {
		g.workers = runtime.GOMAXPROCS(0)
	}
	return g, nil
}

// OutputDir returns the absolute output directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// Run processes every entry. A failed entry never stops the others. With
// PolicySkip the returned error is nil unless ctx was canceled; with
// PolicyFail it joins every entry failure.
func (g *Generator) Run(ctx context.Context, entries []Entry) (*Report, error) {
	start := time.Now()
	report := &Report{Results: make([]EntryResult, len(entries))}

	workers := min(g.workers, len(entries))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range jobs {
				report.Results[i] = g.runEntry(ctx, worker, entries[i])
			}
		}(w)
	}
	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for _, res := range report.Results {
		if res.Err == nil {
			report.Generated++
			continue
		}
		report.Failed++
		if g.policy == PolicyFail {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", res.Input, res.Output, res.Err))
			continue
		}
		g.logger.Warn("Skipped pipeline entry",
			logfields.Input(res.Input),
			logfields.Output(res.Output),
			logfields.Error(res.Err))
	}
	report.Duration = time.Since(start)

	g.logger.Info("Generation finished",
		slog.Int("generated", report.Generated),
		slog.Int("failed", report.Failed),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ferrors.WrapError(ctxErr, ferrors.CategoryRuntime, "generation canceled").Build()
	}
	if len(errs) > 0 {
		return report, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryRuntime, "pipeline entries failed").
			WithContext("failed", report.Failed).
			WithContext("total", len(entries)).
			Build()
	}
	return report, nil
}

func (g *Generator) runEntry(ctx context.Context, worker int, e Entry) EntryResult {
	start := time.Now()
	res := EntryResult{Input: e.Input, Output: e.Output}
	res.Err = g.process(ctx, e, &res)
	res.Duration = time.Since(start)

	label := metrics.ResultSuccess
	if res.Err != nil {
		label = metrics.ResultFailed
	} else {
		g.logger.Debug("Generated pipeline entry",
			logfields.Worker(worker),
			logfields.Input(e.Input),
			logfields.Path(res.Path),
			logfields.ResponseSize(res.Bytes))
	}
	g.recorder.ObserveGenerateEntry(res.Duration, label)
	return res
}

func (g *Generator) process(ctx context.Context, e Entry, res *EntryResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := g.target(e.Output)
	if err != nil {
		return err
	}
	resolved, err := g.resolver.ResolveSource(ctx, e.Input)
	if err != nil {
		return err
	}
	if err := writeAtomic(target, resolved.Body); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").
			WithContext("path", target).Build()
	}
	res.Path = target
	res.Bytes = len(resolved.Body)
	return nil
}

// target maps output onto the output directory, rejecting escapes.
func (g *Generator) target(output string) (string, error) {
	if strings.TrimSpace(output) == "" {
		return "", ferrors.NewError(ferrors.CategoryValidation, "output path is empty").Build()
	}
	if filepath.IsAbs(output) {
		return "", ferrors.NewError(ferrors.CategoryValidation, "output path must be relative").
			WithCause(ErrOutputEscapes).WithContext("output", output).Build()
	}
	p := filepath.Join(g.outputDir, filepath.FromSlash(output))
	rel, err := filepath.Rel(g.outputDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ferrors.NewError(ferrors.CategoryValidation, "output path escapes output directory").
			WithCause(ErrOutputEscapes).WithContext("output", output).Build()
	}
	return p, nil
}

// writeAtomic writes data through a temp file in the target directory and
// renames it into place, so a failed write leaves no partial file behind.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".reqaz-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
