package rpc

import "encoding/json"

// Event kinds streamed by WatchScanEvents. They mirror the daemon bus.
const (
	EventStateChanged    = "scan.state_changed"
	EventScanStarted     = "scan.started"
	EventScanProgress    = "scan.progress"
	EventScanForwarded   = "scan.forwarded"
	EventScanFinished    = "scan.finished"
	EventSessionSelected = "session.selected"
)

// Scan states as reported over the wire.
const (
	StateStopped = "STOPPED"
	StateRunning = "RUNNING"
)

type StartScanRequest struct {
	Target   string   `json:"target"`
	Keywords []string `json:"keywords"`
}

type StartScanResponse struct {
	RunID string `json:"run_id"`
}

type StopScanResponse struct {
	Stopped bool `json:"stopped"`
}

// ScanStatus describes the controller. Counters are those of the in-flight
// run; Last is the most recent finished run of this daemon.
type ScanStatus struct {
	State           string      `json:"state"`
	Session         string      `json:"session"`
	RunID           string      `json:"run_id,omitempty"`
	Target          string      `json:"target,omitempty"`
	Keywords        []string    `json:"keywords,omitempty"`
	StartedAtUnixMs int64       `json:"started_at_unix_ms,omitempty"`
	Scanned         int64       `json:"scanned"`
	Matched         int64       `json:"matched"`
	Forwarded       int64       `json:"forwarded"`
	LastMsgID       int         `json:"last_msg_id,omitempty"`
	Last            *RunSummary `json:"last,omitempty"`
}

// RunSummary is a journaled or just-finished run.
type RunSummary struct {
	RunID            string   `json:"run_id"`
	Session          string   `json:"session"`
	Target           string   `json:"target"`
	Keywords         []string `json:"keywords,omitempty"`
	StartedAtUnixMs  int64    `json:"started_at_unix_ms,omitempty"`
	FinishedAtUnixMs int64    `json:"finished_at_unix_ms,omitempty"`
	Outcome          string   `json:"outcome"`
	ErrorKind        string   `json:"error_kind,omitempty"`
	Error            string   `json:"error,omitempty"`
	Scanned          int64    `json:"scanned"`
	Matched          int64    `json:"matched"`
	Forwarded        int64    `json:"forwarded"`
}

type ListRunsRequest struct {
	Session string `json:"session,omitempty"`
	Limit   int32  `json:"limit,omitempty"`
}

type ListRunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

type ListForwardsRequest struct {
	RunID string `json:"run_id"`
}

type ForwardRecord struct {
	MsgID             int    `json:"msg_id"`
	Keyword           string `json:"keyword"`
	ForwardedAtUnixMs int64  `json:"forwarded_at_unix_ms"`
}

type ListForwardsResponse struct {
	Forwards []ForwardRecord `json:"forwards"`
}

// EventEnvelope wraps one bus event. Payload holds one of the *Event types
// below, selected by Kind.
type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	Session          string          `json:"session"`
	OccurredAtUnixMs int64           `json:"occurred_at_unix_ms"`
	Kind             string          `json:"kind"`
	PayloadVersion   int32           `json:"payload_version"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v.
func (e *EventEnvelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type StateChangedEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ScanStartedEvent struct {
	RunID           string   `json:"run_id"`
	Session         string   `json:"session"`
	Target          string   `json:"target"`
	Keywords        []string `json:"keywords"`
	StartedAtUnixMs int64    `json:"started_at_unix_ms"`
}

type ScanProgressEvent struct {
	RunID     string `json:"run_id"`
	Scanned   int64  `json:"scanned"`
	Matched   int64  `json:"matched"`
	Forwarded int64  `json:"forwarded"`
	LastMsgID int    `json:"last_msg_id"`
}

type ScanForwardedEvent struct {
	RunID             string `json:"run_id"`
	MsgID             int    `json:"msg_id"`
	Keyword           string `json:"keyword"`
	ForwardedAtUnixMs int64  `json:"forwarded_at_unix_ms"`
}

// ScanFinishedEvent carries the final RunSummary.
type ScanFinishedEvent = RunSummary

type SessionSelectedEvent struct {
	Name string `json:"name"`
}

type SessionInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Active   string        `json:"active"`
}

type SelectSessionRequest struct {
	Name string `json:"name"`
}

type SelectSessionResponse struct {
	Active string `json:"active"`
}

type DaemonStatus struct {
	PID             int    `json:"pid"`
	BaseDir         string `json:"base_dir"`
	Socket          string `json:"socket"`
	StartedAtUnixMs int64  `json:"started_at_unix_ms"`
	UptimeMs        int64  `json:"uptime_ms"`
	ActiveSession   string `json:"active_session"`
	State           string `json:"state"`
}
