package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/tgscan/internal/bus"
)

// State is the scan state owned by the daemon.
type State string

const (
	Stopped State = "STOPPED"
	Running State = "RUNNING"
)

var validTransitions = map[State][]State{
	Stopped: {Running},
	Running: {Stopped},
}

// Machine tracks and enforces scan state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Stopped.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Stopped,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Running reports whether a scan is in flight.
func (m *Machine) Running() bool {
	return m.Current() == Running
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStateChanged, StateChange{From: from, To: to})
	return nil
}

// StateChange is the payload for state change events.
type StateChange struct {
	From State
	To   State
}
