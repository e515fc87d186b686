package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ShutdownRequester is asked to stop at the next safe point.
type ShutdownRequester interface {
	Request()
}

// InterruptHandler turns the first interrupt into a graceful shutdown
// request and the second into a hard cancel.
type InterruptHandler struct {
	writer   io.Writer
	shutdown ShutdownRequester
	signals  int
	mu       sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer, shutdown ShutdownRequester) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:   writer,
		shutdown: shutdown,
	}
}

// HandleInterrupts listens for SIGINT and SIGTERM. The returned context is
// canceled on the second signal. Call stop to release the handler.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.watch(ctx, sigChan, cancel)
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
		<-done
	}
}

func (h *InterruptHandler) watch(ctx context.Context, sigChan <-chan os.Signal, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigChan:
			if h.onSignal() {
				cancel()
				return
			}
		}
	}
}

// onSignal reports whether the run should be aborted immediately.
func (h *InterruptHandler) onSignal() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.signals++
	if h.signals == 1 {
		if h.shutdown != nil {
			h.shutdown.Request()
		}
		h.write("\n" + FormatWarning("Interrupt received, finishing the current record...") +
			"\n" + FormatInfo("Press Ctrl+C again to abort immediately.") + "\n")
		return false
	}

	h.write("\n" + FormatError("Aborting.") + "\n")
	return true
}

func (h *InterruptHandler) write(msg string) {
	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if at least one interrupt was received.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signals > 0
}
