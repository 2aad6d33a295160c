package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/tgscan/internal/bus"
)

var (
	// ErrScanInProgress is returned when the active session is changed while
	// a scan is running.
	ErrScanInProgress = errors.New("scan in progress")
	// ErrUnknownSession is returned for names without a session file.
	ErrUnknownSession = errors.New("unknown session")
)

// RunState reports whether a scan currently holds the active session.
type RunState interface {
	Running() bool
}

// Selector tracks which session the scan controller connects with.
type Selector struct {
	mu     sync.Mutex
	store  *Store
	state  RunState
	bus    *bus.Bus
	active string
}

// NewSelector creates a selector with initial as the active session. The
// initial name need not exist yet; a scan against it fails to connect.
func NewSelector(store *Store, state RunState, b *bus.Bus, initial string) *Selector {
	return &Selector{
		store:  store,
		state:  state,
		bus:    b,
		active: initial,
	}
}

// Active returns the active session name.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select rebinds the active session. It fails with ErrScanInProgress while a
// scan is running and leaves the active session untouched.
func (s *Selector) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil && s.state.Running() {
		return ErrScanInProgress
	}
	if !s.store.Exists(name) {
		return fmt.Errorf("%w: %q", ErrUnknownSession, name)
	}
	if s.active == name {
		return nil
	}
	s.active = name
	s.bus.Emit(bus.KindSessionSelected, name)
	return nil
}

// Pin runs fn with the active session while holding the selector, so a
// concurrent Select observes the state fn leaves behind. The scan controller
// flips to Running inside fn.
func (s *Selector) Pin(fn func(active string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.active)
}
