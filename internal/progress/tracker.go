// Package progress keeps run counters and renders them for the terminal.
package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/llm-pipeline/internal/model"
)

// Stats is a snapshot of a run's counters.
type Stats struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Tokens    int
	Cost      float64
	Elapsed   time.Duration
}

// SuccessRate returns the share of processed records that succeeded, in
// percent.
func (s Stats) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Processed) * 100
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("processed", s.Processed),
		slog.Int("succeeded", s.Succeeded),
		slog.Int("failed", s.Failed),
		slog.Int("tokens", s.Tokens),
		slog.Float64("cost", s.Cost),
		slog.Duration("elapsed", s.Elapsed),
	)
}

// Tracker accumulates counters as results arrive.
type Tracker struct {
	started time.Time
	now     func() time.Time
	stats   Stats
	mu      sync.Mutex
}

// NewTracker starts tracking a run of total records.
func NewTracker(total int) *Tracker {
	return &Tracker{
		started: time.Now(),
		now:     time.Now,
		stats:   Stats{Total: total},
	}
}

// Record adds one result to the counters.
func (t *Tracker) Record(result model.ProcessingResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Processed++
	if result.Success {
		t.stats.Succeeded++
	} else {
		t.stats.Failed++
	}
	t.stats.Tokens += result.TokensUsed
	t.stats.Cost += result.Cost
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stats
	s.Elapsed = t.now().Sub(t.started)
	return s
}
