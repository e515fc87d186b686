package progress

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/llm-pipeline/internal/model"
)

func TestTrackerCounts(t *testing.T) {
	tracker := NewTracker(4)
	start := tracker.started
	tracker.now = func() time.Time { return start.Add(3 * time.Second) }

	record := model.Record{ID: 1, Content: "x"}
	tracker.Record(model.NewSuccess(record, model.Completion{Text: "y", TokensUsed: 100, Cost: 0.01}))
	tracker.Record(model.NewSuccess(record, model.Completion{Text: "y", TokensUsed: 50, Cost: 0.005}))
	tracker.Record(model.NewValidationFailure(record, model.Completion{Text: "short", TokensUsed: 20, Cost: 0.002}, "too short"))
	tracker.Record(model.NewFailure(record, errors.New("timeout")))

	stats := tracker.Snapshot()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 170, stats.Tokens)
	assert.InDelta(t, 0.017, stats.Cost, 1e-9)
	assert.Equal(t, 3*time.Second, stats.Elapsed)
	assert.InDelta(t, 50.0, stats.SuccessRate(), 1e-9)
}

func TestStatsSuccessRateEmpty(t *testing.T) {
	assert.Zero(t, Stats{}.SuccessRate())
}

func TestStatsLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("done", "stats", Stats{Total: 2, Processed: 2, Succeeded: 1, Failed: 1, Tokens: 10})

	out := buf.String()
	assert.True(t, strings.Contains(out, "stats.processed=2"), out)
	assert.True(t, strings.Contains(out, "stats.failed=1"), out)
}

func TestBarObserve(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)

	// Observing before Start is a no-op.
	bar.Observe(model.NewFailure(model.Record{ID: 1}, errors.New("boom")))
	bar.Finish()
	require.Empty(t, buf.String())

	bar.Start(2)
	bar.Observe(model.NewSuccess(model.Record{ID: 1}, model.Completion{Text: "ok"}))
	bar.Observe(model.NewFailure(model.Record{ID: 2}, errors.New("boom")))
	bar.Finish()

	assert.Contains(t, buf.String(), "2/2")
}
