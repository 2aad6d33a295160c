package scan

import "time"

// Outcome describes how a scan ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Started is the payload of scan.started.
type Started struct {
	RunID     string
	Session   string
	Target    string
	Keywords  []string
	StartedAt time.Time
}

// Progress is the payload of scan.progress, published after every message.
type Progress struct {
	RunID     string
	Scanned   int64
	Matched   int64
	Forwarded int64
	LastMsgID int
}

// Forwarded is the payload of scan.forwarded.
type Forwarded struct {
	RunID       string
	MsgID       int
	Keyword     string
	ForwardedAt time.Time
}

// Finished is the payload of scan.finished.
type Finished struct {
	Progress
	Session    string
	Target     string
	Outcome    Outcome
	ErrorKind  string
	Error      string
	FinishedAt time.Time
}
