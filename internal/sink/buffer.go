package sink

import (
	"errors"
	"sync"
)

// ErrClosed is returned for writes after Close.
var ErrClosed = errors.New("sink is closed")

type pendingWrite struct {
	id      any
	content string
}

// buffer holds writes between commits. Access is serialized so a sink can
// be shared by concurrent callers.
type buffer struct {
	pending []pendingWrite
	mu      sync.Mutex
	closed  bool
}

func (b *buffer) add(id any, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.pending = append(b.pending, pendingWrite{id: id, content: content})
	return nil
}

func (b *buffer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// flush hands the pending writes to apply while holding the lock. The
// buffer is cleared only when apply succeeds.
func (b *buffer) flush(apply func([]pendingWrite) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	if err := apply(b.pending); err != nil {
		return err
	}
	b.pending = b.pending[:0]
	return nil
}

// shutdown flushes the remaining writes, marks the buffer closed and runs
// release exactly once. Later calls return nil.
func (b *buffer) shutdown(apply func([]pendingWrite) error, release func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var flushErr error
	if len(b.pending) > 0 {
		if flushErr = apply(b.pending); flushErr == nil {
			b.pending = b.pending[:0]
		}
	}

	return errors.Join(flushErr, release())
}
