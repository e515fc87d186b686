// Package engine drives records from a source through a language model and
// into a sink.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/progress"
	"github.com/Veraticus/llm-pipeline/internal/service"
)

// DefaultBatchCommitSize is the number of results between sink commits.
const DefaultBatchCommitSize = 10

// ErrPromptNotFound is returned when the prompt file does not exist.
var ErrPromptNotFound = errors.New("prompt file not found")

// Options configures a Pipeline.
type Options struct {
	// Strategy defaults to a SequentialStrategy using Retry.
	Strategy Strategy
	// Reporter receives progress updates. Optional.
	Reporter Reporter
	// Shutdown stops the run at the next record boundary when requested.
	Shutdown *ShutdownToken
	Logger   *slog.Logger
	// PromptFile holds the system instruction sent with every record.
	PromptFile string
	// SQLValidationPromptFile replaces the default compatibility template.
	// A missing file falls back to the default.
	SQLValidationPromptFile string
	Retry                   service.RetryOptions
	BatchCommitSize         int
	// ValidateSQL enables the pre-flight query compatibility check.
	ValidateSQL bool
}

// Report is the outcome of a run that got past pre-flight.
type Report struct {
	RunID   string
	Results []model.ProcessingResult
	Stats   progress.Stats
	// Interrupted is set when a shutdown request ended the run early.
	Interrupted bool
}

// Pipeline wires a source, a provider and a sink together.
type Pipeline struct {
	source   service.Source
	sink     service.Sink
	provider service.Provider
	opts     Options
}

// New creates a pipeline. The pipeline owns source and sink and closes
// them when Run returns.
func New(source service.Source, sink service.Sink, provider service.Provider, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchCommitSize <= 0 {
		opts.BatchCommitSize = DefaultBatchCommitSize
	}
	if opts.Strategy == nil {
		opts.Strategy = NewSequentialStrategy(opts.Retry, nil, opts.Logger)
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}

	return &Pipeline{
		source:   source,
		sink:     sink,
		provider: provider,
		opts:     opts,
	}
}

// Run executes the pipeline. It returns a nil Report and nil error when the
// pre-flight check rejects the queries, an empty Report when no records
// match, and otherwise one result per processed record. Source and sink
// are closed on every path.
func (p *Pipeline) Run(ctx context.Context) (report *Report, err error) {
	runID := uuid.NewString()
	logger := p.opts.Logger.With("run_id", runID)

	defer func() {
		if closeErr := p.close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Error("Failed to release resources", "error", closeErr)
			report, err = nil, errors.Join(err, closeErr)
		}
	}()

	prompt, err := LoadPrompt(p.opts.PromptFile)
	if err != nil {
		return nil, err
	}

	if p.opts.ValidateSQL {
		valid, explanation, err := p.validateSQL(ctx, logger)
		if err != nil {
			logger.Error("SQL validation failed", "error", err)
			return nil, nil
		}
		if !valid {
			logger.Error("SQL validation failed", "explanation", explanation)
			return nil, nil
		}
		logger.Info("SQL validation passed")
	}

	total, err := p.source.Count(ctx)
	if err != nil {
		return nil, p.fail(logger, fmt.Errorf("failed to count records: %w", err))
	}
	logger.Info("Total records to process", "count", total)

	report = &Report{RunID: runID, Results: []model.ProcessingResult{}}
	if total == 0 {
		return report, nil
	}

	tracker := progress.NewTracker(total)
	p.opts.Reporter.Start(total)
	defer p.opts.Reporter.Finish()

	strategy := p.opts.Strategy
	if binder, ok := strategy.(LoggerBinder); ok {
		strategy = binder.WithLogger(logger)
	}

	// Commits ignore cancellation: a second interrupt stops the loop, but
	// results already produced are still written.
	commitCtx := context.WithoutCancel(ctx)

	report.Results = make([]model.ProcessingResult, 0, total)
	results := strategy.Process(ctx, p.source.Records(ctx), p.provider, prompt)
	for result, err := range results {
		if err != nil {
			return nil, p.fail(logger, fmt.Errorf("failed to read records: %w", err))
		}

		report.Results = append(report.Results, result)

		if result.Success && result.Transformed() != "" {
			if err := p.sink.WriteRecord(ctx, result.RecordID, result.Transformed()); err != nil {
				return nil, p.fail(logger, fmt.Errorf("failed to buffer record %v: %w", result.RecordID, err))
			}
		}

		tracker.Record(result)
		p.opts.Reporter.Observe(result)

		if len(report.Results)%p.opts.BatchCommitSize == 0 {
			if err := p.sink.CommitBatch(commitCtx); err != nil {
				return nil, p.fail(logger, fmt.Errorf("failed to commit batch: %w", err))
			}
			logger.Debug("Committed batch", "processed", len(report.Results))
		}

		if p.opts.Shutdown.Requested() {
			logger.Info("Shutdown requested, stopping before next record", "processed", len(report.Results))
			report.Interrupted = true
			break
		}
		if ctx.Err() != nil {
			return nil, p.fail(logger, ctx.Err())
		}
	}

	if err := p.sink.CommitBatch(commitCtx); err != nil {
		return nil, p.fail(logger, fmt.Errorf("failed to commit final batch: %w", err))
	}

	report.Stats = tracker.Snapshot()
	logger.Info("Pipeline finished", "stats", report.Stats, "interrupted", report.Interrupted)
	return report, nil
}

// ValidateSQL asks the provider whether the source and sink queries address
// the same field. It reports valid when either side does not expose its
// query.
func (p *Pipeline) ValidateSQL(ctx context.Context) (bool, string, error) {
	return p.validateSQL(ctx, p.opts.Logger)
}

func (p *Pipeline) validateSQL(ctx context.Context, logger *slog.Logger) (bool, string, error) {
	src, ok := p.source.(service.QueryExposer)
	if !ok {
		return true, "source does not expose its query", nil
	}
	dst, ok := p.sink.(service.QueryExposer)
	if !ok {
		return true, "sink does not expose its query", nil
	}

	instructions := p.loadValidationInstructions(logger)

	retry := p.opts.Retry
	retry.Logger = logger

	type verdict struct {
		explanation string
		valid       bool
	}
	v, err := common.WithRetry(ctx, func(ctx context.Context) (verdict, error) {
		valid, explanation, err := p.provider.ValidateCompatibility(ctx, src.Query(), dst.Query(), instructions)
		return verdict{valid: valid, explanation: explanation}, err
	}, retry)
	if err != nil {
		return false, "", fmt.Errorf("compatibility check failed: %w", err)
	}

	return v.valid, v.explanation, nil
}

// Close releases the source and sink without running.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.close(ctx)
}

func (p *Pipeline) loadValidationInstructions(logger *slog.Logger) string {
	path := p.opts.SQLValidationPromptFile
	if path == "" {
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("SQL validation prompt not readable, using default",
			"path", path,
			"error", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (p *Pipeline) fail(logger *slog.Logger, err error) error {
	common.LogError(logger, err, "Pipeline error", common.Fields{
		"provider": p.provider.Name(),
		"model":    p.provider.Model(),
	})
	return err
}

func (p *Pipeline) close(ctx context.Context) error {
	var errs []error
	if err := p.source.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close source: %w", err))
	}
	if err := p.sink.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sink: %w", err))
	}
	return errors.Join(errs...)
}

// LoadPrompt reads the instruction file and trims surrounding whitespace.
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPromptNotFound, path)
		}
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
