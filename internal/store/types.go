package store

// Outcome values stored in scan_runs.outcome.
const (
	OutcomeRunning     = "running"
	OutcomeInterrupted = "interrupted"
)

// Run is one journaled scan. Times are unix milliseconds; FinishedAt is 0
// while the run is in flight.
type Run struct {
	ID         string
	Session    string
	Target     string
	Keywords   []string
	StartedAt  int64
	FinishedAt int64
	Outcome    string
	ErrorKind  string
	Error      string
	Scanned    int64
	Matched    int64
	Forwarded  int64
	LastMsgID  int
}

// Forward is one message forwarded to Saved Messages during a run.
type Forward struct {
	RunID       string
	MsgID       int
	Keyword     string
	ForwardedAt int64
}
