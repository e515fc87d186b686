package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/service"
)

// fastRetry keeps backoff sleeps out of test wall time.
var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

// fakeSource yields records from memory and counts how many were pulled.
type fakeSource struct {
	countErr  error
	streamErr error
	query     string
	records   []model.Record
	fetched   int
	closed    int
	mu        sync.Mutex
}

func newFakeSource(n int) *fakeSource {
	records := make([]model.Record, n)
	for i := range records {
		records[i] = model.Record{
			ID:       i + 1,
			Content:  fmt.Sprintf("record content %d", i+1),
			Metadata: map[string]any{},
		}
	}
	return &fakeSource{records: records, query: "SELECT id, body AS content FROM notes"}
}

func (s *fakeSource) Records(_ context.Context) iter.Seq2[model.Record, error] {
	return func(yield func(model.Record, error) bool) {
		for _, r := range s.records {
			s.mu.Lock()
			s.fetched++
			s.mu.Unlock()
			if !yield(r, nil) {
				return
			}
		}
		if s.streamErr != nil {
			yield(model.Record{}, s.streamErr)
		}
	}
}

func (s *fakeSource) Count(_ context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.records), nil
}

func (s *fakeSource) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSource) Query() string { return s.query }

// plainSource does not expose its query, so the pre-flight check is
// skipped.
type plainSource struct {
	src *fakeSource
}

func (s plainSource) Records(ctx context.Context) iter.Seq2[model.Record, error] {
	return s.src.Records(ctx)
}

func (s plainSource) Count(ctx context.Context) (int, error) { return s.src.Count(ctx) }
func (s plainSource) Close(ctx context.Context) error        { return s.src.Close(ctx) }

// fakeSink records writes and commits.
type fakeSink struct {
	commitErr    error
	query        string
	pending      []string
	committed    []string
	commitCalls  int
	transactions int
	closed       int
	mu           sync.Mutex
}

func newFakeSink() *fakeSink {
	return &fakeSink{query: "UPDATE notes SET body = :content WHERE id = :id"}
}

func (s *fakeSink) WriteRecord(_ context.Context, id any, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fmt.Sprintf("%v=%s", id, content))
	return nil
}

func (s *fakeSink) CommitBatch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitCalls++
	if len(s.pending) == 0 {
		return nil
	}
	if s.commitErr != nil {
		return s.commitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.transactions++
	s.committed = append(s.committed, s.pending...)
	s.pending = nil
	return nil
}

func (s *fakeSink) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	if s.commitErr != nil {
		return nil
	}
	return s.CommitBatch(ctx)
}

func (s *fakeSink) Query() string { return s.query }

// fakeProvider answers through a configurable function.
type fakeProvider struct {
	execute      func(call int, content string) (model.Completion, error)
	verdictErr   error
	explanation  string
	instructions string
	calls        int
	verdictCalls int
	valid        bool
	mu           sync.Mutex
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{valid: true, explanation: "VALID"}
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-model" }

func (p *fakeProvider) Execute(_ context.Context, _, content string) (model.Completion, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	if p.execute != nil {
		return p.execute(call, content)
	}
	return model.Completion{Text: "transformed " + content, TokensUsed: 10, Cost: 0.001}, nil
}

func (p *fakeProvider) ValidateCompatibility(_ context.Context, _, _, instructions string) (bool, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.verdictCalls++
	p.instructions = instructions
	if p.verdictErr != nil {
		return false, "", p.verdictErr
	}
	return p.valid, p.explanation, nil
}

// errRateLimited is classified as retryable by its message.
var errRateLimited = errors.New("429 Too Many Requests")

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func contentOf(entry string) string {
	_, content, _ := strings.Cut(entry, "=")
	return content
}
