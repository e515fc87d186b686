// Package service defines the capability interfaces the pipeline is built on.
package service

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/Veraticus/llm-pipeline/internal/model"
)

// Source lazily produces the records a run will transform.
type Source interface {
	// Records streams every record matching the source's criteria. The
	// sequence can be consumed only once. A non-nil error stops the run.
	Records(ctx context.Context) iter.Seq2[model.Record, error]
	// Count returns the number of records Records would yield, without
	// consuming the sequence.
	Count(ctx context.Context) (int, error)
	// Close releases held resources. It is safe to call more than once.
	Close(ctx context.Context) error
}

// Sink buffers transformed content and writes it in atomic batches.
type Sink interface {
	// WriteRecord buffers a pending write. Nothing is persisted until the
	// next CommitBatch.
	WriteRecord(ctx context.Context, id any, content string) error
	// CommitBatch applies all buffered writes in one transaction and clears
	// the buffer. With an empty buffer it does nothing.
	CommitBatch(ctx context.Context) error
	// Close commits any remaining writes and releases resources. It is safe
	// to call more than once.
	Close(ctx context.Context) error
}

// QueryExposer is implemented by sources and sinks that can show the SQL
// they run, so the two can be cross-checked before a run.
type QueryExposer interface {
	Query() string
}

// Provider is a remote language model that transforms text.
type Provider interface {
	Name() string
	Model() string
	// Execute sends prompt as the system instruction and content as the user
	// message. Errors are returned unclassified.
	Execute(ctx context.Context, prompt, content string) (model.Completion, error)
	// ValidateCompatibility asks the model whether the two queries read and
	// write the same field. instructions replaces the default template when
	// not empty.
	ValidateCompatibility(ctx context.Context, selectQuery, updateQuery, instructions string) (bool, string, error)
}

// RetryOptions configures retry behavior for remote calls.
type RetryOptions struct {
	// Logger receives retry warnings. Nil uses slog.Default().
	Logger       *slog.Logger
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
