package engine

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/service"
)

// Strategy turns a record stream into a result stream. Implementations
// must yield exactly one result per record, in source order. A record
// stream error is passed through and ends the stream.
type Strategy interface {
	Process(ctx context.Context, records iter.Seq2[model.Record, error], provider service.Provider, prompt string) iter.Seq2[model.ProcessingResult, error]
}

// LoggerBinder is implemented by strategies that log per record. Run hands
// them the run's logger so every line carries the run_id.
type LoggerBinder interface {
	WithLogger(logger *slog.Logger) Strategy
}

// Reporter observes a run's progress.
type Reporter interface {
	Start(total int)
	Observe(result model.ProcessingResult)
	Finish()
}

type nopReporter struct{}

func (nopReporter) Start(int)                      {}
func (nopReporter) Observe(model.ProcessingResult) {}
func (nopReporter) Finish()                        {}
