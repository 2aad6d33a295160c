package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest rejects a start with an empty target or keyword list.
	ErrInvalidRequest = errors.New("invalid scan request")
	// ErrAlreadyRunning rejects a start while another scan is in flight.
	ErrAlreadyRunning = errors.New("scan already running")

	// ErrConnectionFailed means the messaging client could not connect with the session.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrForwardFailed means forwarding a matched message failed.
	ErrForwardFailed = errors.New("forward failed")
	// ErrUnclassified covers every other failure during a scan.
	ErrUnclassified = errors.New("scan failed")
)

// Error is a scan-terminating failure. It matches its Kind and its cause
// with errors.Is.
type Error struct {
	Kind  error
	MsgID int
	Err   error
}

func (e *Error) Error() string {
	if e.MsgID != 0 {
		return fmt.Sprintf("%v (message %d): %v", e.Kind, e.MsgID, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Detail returns the cause's message, the Unclassified(detail) payload.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// KindName returns a stable name for the error kind of err, or "" if err is
// not a scan failure.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectionFailed):
		return "connection_failed"
	case errors.Is(err, ErrForwardFailed):
		return "forward_failed"
	case errors.Is(err, ErrUnclassified):
		return "unclassified"
	default:
		return ""
	}
}
