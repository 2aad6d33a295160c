package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Describe renders an event as one log line. Progress events return ""
// since they only update counters.
func Describe(env *rpc.EventEnvelope) string {
	ts := time.UnixMilli(env.OccurredAtUnixMs).Format("15:04:05")
	var line string

	switch env.Kind {
	case rpc.EventStateChanged:
		var p rpc.StateChangedEvent
		if env.Decode(&p) != nil {
			return ""
		}
		line = fmt.Sprintf("state %s -> %s", p.From, p.To)
	case rpc.EventScanStarted:
		var p rpc.ScanStartedEvent
		if env.Decode(&p) != nil {
			return ""
		}
		line = fmt.Sprintf("scan started on %s as %s, keywords: %s",
			p.Target, p.Session, strings.Join(p.Keywords, ", "))
	case rpc.EventScanForwarded:
		var p rpc.ScanForwardedEvent
		if env.Decode(&p) != nil {
			return ""
		}
		line = fmt.Sprintf("forwarded message %d (%q)", p.MsgID, p.Keyword)
	case rpc.EventScanFinished:
		var p rpc.ScanFinishedEvent
		if env.Decode(&p) != nil {
			return ""
		}
		line = fmt.Sprintf("scan %s: %d scanned, %d matched, %d forwarded",
			p.Outcome, p.Scanned, p.Matched, p.Forwarded)
		if p.Error != "" {
			line += " (" + p.Error + ")"
		}
	case rpc.EventSessionSelected:
		var p rpc.SessionSelectedEvent
		if env.Decode(&p) != nil {
			return ""
		}
		line = "session " + p.Name + " selected"
	default:
		return ""
	}
	return ts + " " + line
}

// ErrorText turns an RPC error into an operator-facing message.
func ErrorText(err error) string {
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return err.Error()
	}
	switch st.Code() {
	case codes.Unavailable:
		return "daemon unavailable: " + st.Message()
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
		return st.Message()
	default:
		return st.Code().String() + ": " + st.Message()
	}
}

// IsScanInProgress reports whether err is the daemon refusing a session
// switch because a scan is running.
func IsScanInProgress(err error) bool {
	return grpcstatus.Code(err) == codes.FailedPrecondition
}
