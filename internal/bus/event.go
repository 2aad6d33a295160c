package bus

import "time"

// Event kinds published by the daemon. Subscribers filter on the prefix
// before the dot ("scan.", "session.").
const (
	KindStateChanged    = "scan.state_changed"
	KindScanStarted     = "scan.started"
	KindScanProgress    = "scan.progress"
	KindScanForwarded   = "scan.forwarded"
	KindScanFinished    = "scan.finished"
	KindSessionSelected = "session.selected"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Namespace returns the prefix of kind up to and including the first dot.
func Namespace(kind string) string {
	for i := 0; i < len(kind); i++ {
		if kind[i] == '.' {
			return kind[:i+1]
		}
	}
	return kind
}
