package scan

import "sync"

// Signal is a cooperative cancellation handle. The scan loop polls it once
// per message and never aborts a message mid-way.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

// NewSignal returns an unrequested signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Request asks the scan to stop at its next poll point. Idempotent.
func (s *Signal) Request() {
	s.once.Do(func() { close(s.ch) })
}

// Requested reports whether Request has been called. A nil Signal is never requested.
func (s *Signal) Requested() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done is closed once Request has been called.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}
