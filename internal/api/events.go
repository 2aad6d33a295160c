package api

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/status"
)

const payloadVersion = 1

// envelope converts a bus event to its wire form. ok is false for events
// with no wire representation.
func envelope(evt bus.Event, session string) (*rpc.EventEnvelope, bool) {
	var payload any
	switch p := evt.Payload.(type) {
	case status.StateChange:
		payload = rpc.StateChangedEvent{From: string(p.From), To: string(p.To)}
	case scan.Started:
		payload = rpc.ScanStartedEvent{
			RunID:           p.RunID,
			Session:         p.Session,
			Target:          p.Target,
			Keywords:        p.Keywords,
			StartedAtUnixMs: p.StartedAt.UnixMilli(),
		}
		session = p.Session
	case scan.Progress:
		payload = progressEvent(p)
	case scan.Forwarded:
		payload = rpc.ScanForwardedEvent{
			RunID:             p.RunID,
			MsgID:             p.MsgID,
			Keyword:           p.Keyword,
			ForwardedAtUnixMs: p.ForwardedAt.UnixMilli(),
		}
	case scan.Finished:
		payload = finishedSummary(p)
		session = p.Session
	case string:
		if evt.Kind != bus.KindSessionSelected {
			return nil, false
		}
		payload = rpc.SessionSelectedEvent{Name: p}
		session = p
	default:
		return nil, false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return &rpc.EventEnvelope{
		EventID:          uuid.NewString(),
		Session:          session,
		OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
		Kind:             evt.Kind,
		PayloadVersion:   payloadVersion,
		Payload:          data,
	}, true
}

func progressEvent(p scan.Progress) rpc.ScanProgressEvent {
	return rpc.ScanProgressEvent{
		RunID:     p.RunID,
		Scanned:   p.Scanned,
		Matched:   p.Matched,
		Forwarded: p.Forwarded,
		LastMsgID: p.LastMsgID,
	}
}

func finishedSummary(p scan.Finished) rpc.RunSummary {
	return rpc.RunSummary{
		RunID:            p.RunID,
		Session:          p.Session,
		Target:           p.Target,
		FinishedAtUnixMs: p.FinishedAt.UnixMilli(),
		Outcome:          string(p.Outcome),
		ErrorKind:        p.ErrorKind,
		Error:            p.Error,
		Scanned:          p.Scanned,
		Matched:          p.Matched,
		Forwarded:        p.Forwarded,
	}
}
