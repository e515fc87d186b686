package engine

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Veraticus/llm-pipeline/internal/common"
	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/service"
	"github.com/Veraticus/llm-pipeline/internal/validation"
)

// SequentialStrategy transforms one record at a time. Each provider call is
// retried on rate limits and timeouts, and every answer is validated.
type SequentialStrategy struct {
	validator *validation.Validator
	logger    *slog.Logger
	retry     service.RetryOptions
}

// NewSequentialStrategy creates a strategy. A nil validator applies the
// default length checks; a nil logger uses slog.Default().
func NewSequentialStrategy(retry service.RetryOptions, validator *validation.Validator, logger *slog.Logger) *SequentialStrategy {
	if validator == nil {
		validator = validation.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SequentialStrategy{
		retry:     retry,
		validator: validator,
		logger:    logger,
	}
}

// WithLogger returns a copy of s that logs record outcomes and retries to
// logger.
func (s *SequentialStrategy) WithLogger(logger *slog.Logger) Strategy {
	bound := *s
	bound.logger = logger
	bound.retry.Logger = logger
	return &bound
}

// Process implements Strategy.
func (s *SequentialStrategy) Process(ctx context.Context, records iter.Seq2[model.Record, error], provider service.Provider, prompt string) iter.Seq2[model.ProcessingResult, error] {
	return func(yield func(model.ProcessingResult, error) bool) {
		for record, err := range records {
			if err != nil {
				yield(model.ProcessingResult{}, err)
				return
			}
			if !yield(s.ProcessRecord(ctx, record, provider, prompt), nil) {
				return
			}
		}
	}
}

// ProcessRecord transforms a single record. It never fails: provider and
// validation errors are reported on the result.
func (s *SequentialStrategy) ProcessRecord(ctx context.Context, record model.Record, provider service.Provider, prompt string) model.ProcessingResult {
	completion, err := common.WithRetry(ctx, func(ctx context.Context) (model.Completion, error) {
		return provider.Execute(ctx, prompt, record.Content)
	}, s.retry)
	if err != nil {
		s.logger.Error("Error processing record",
			"record_id", record.ID,
			"error", err)
		return model.NewFailure(record, err)
	}

	if valid, reason := s.validator.Validate(completion.Text); !valid {
		s.logger.Warn("Validation failed for record",
			"record_id", record.ID,
			"reason", reason)
		return model.NewValidationFailure(record, completion, reason)
	}

	return model.NewSuccess(record, completion)
}
