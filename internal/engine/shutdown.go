package engine

import "sync/atomic"

// ShutdownToken asks a running pipeline to stop at the next record
// boundary. The zero value is ready to use, and a nil token is never
// requested.
type ShutdownToken struct {
	requested atomic.Bool
}

// NewShutdownToken returns an unrequested token.
func NewShutdownToken() *ShutdownToken {
	return &ShutdownToken{}
}

// Request marks the token. Calling it again has no effect.
func (t *ShutdownToken) Request() {
	t.requested.Store(true)
}

// Requested reports whether shutdown was asked for.
func (t *ShutdownToken) Requested() bool {
	return t != nil && t.requested.Load()
}
