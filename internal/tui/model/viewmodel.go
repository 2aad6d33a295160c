package model

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/tui/client"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ViewModel caches daemon state from unary calls and the event stream.
type ViewModel struct {
	mu sync.RWMutex

	client   *client.Client
	status   rpc.ScanStatus
	daemon   *rpc.DaemonStatus
	sessions []rpc.SessionInfo
	runs     []rpc.RunSummary
	Flash    *ui.FlashModel
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client: c,
		status: rpc.ScanStatus{State: rpc.StateStopped},
		Flash:  ui.NewFlashModel(),
	}
}

// LoadStatus fetches the scan controller status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.client.Scan.GetScanStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = *resp
	vm.mu.Unlock()
	return nil
}

// Refresh reloads the scan status, daemon info and sessions. The status
// reload corrects a state left stale by events dropped from the stream.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	return errors.Join(vm.LoadStatus(ctx), vm.LoadDaemon(ctx), vm.LoadSessions(ctx))
}

// LoadDaemon fetches daemon process information.
func (vm *ViewModel) LoadDaemon(ctx context.Context) error {
	resp, err := vm.client.Session.GetDaemonStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.daemon = resp
	vm.mu.Unlock()
	return nil
}

// LoadSessions fetches the sessions available to the daemon.
func (vm *ViewModel) LoadSessions(ctx context.Context) error {
	resp, err := vm.client.Session.ListSessions(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.sessions = resp.Sessions
	vm.status.Session = resp.Active
	vm.mu.Unlock()
	return nil
}

// LoadRuns fetches the most recent journaled runs.
func (vm *ViewModel) LoadRuns(ctx context.Context, limit int32) error {
	resp, err := vm.client.Scan.ListRuns(ctx, &rpc.ListRunsRequest{Limit: limit})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.runs = resp.Runs
	vm.mu.Unlock()
	return nil
}

// Forwards fetches the forwards recorded for one run.
func (vm *ViewModel) Forwards(ctx context.Context, runID string) ([]rpc.ForwardRecord, error) {
	resp, err := vm.client.Scan.ListForwards(ctx, &rpc.ListForwardsRequest{RunID: runID})
	if err != nil {
		return nil, err
	}
	return resp.Forwards, nil
}

// StartScan asks the daemon to scan target. keywords is the raw
// comma-separated operator input.
func (vm *ViewModel) StartScan(ctx context.Context, target, keywords string) (string, error) {
	resp, err := vm.client.Scan.StartScan(ctx, &rpc.StartScanRequest{
		Target:   target,
		Keywords: scan.ParseKeywords(keywords),
	})
	if err != nil {
		return "", err
	}
	return resp.RunID, nil
}

// StopScan requests cancellation of the running scan.
func (vm *ViewModel) StopScan(ctx context.Context) (bool, error) {
	resp, err := vm.client.Scan.StopScan(ctx, &emptypb.Empty{})
	if err != nil {
		return false, err
	}
	return resp.Stopped, nil
}

// SelectSession switches the daemon's active session.
func (vm *ViewModel) SelectSession(ctx context.Context, name string) error {
	resp, err := vm.client.Session.SelectSession(ctx, &rpc.SelectSessionRequest{Name: name})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.setActive(resp.Active)
	vm.mu.Unlock()
	return nil
}

// Watch opens the daemon event stream.
func (vm *ViewModel) Watch(ctx context.Context) (grpc.ServerStreamingClient[rpc.EventEnvelope], error) {
	return vm.client.Scan.WatchScanEvents(ctx, &emptypb.Empty{})
}

// Apply folds a streamed event into the cached status.
func (vm *ViewModel) Apply(env *rpc.EventEnvelope) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch env.Kind {
	case rpc.EventStateChanged:
		var p rpc.StateChangedEvent
		if err := env.Decode(&p); err != nil {
			return err
		}
		vm.status.State = p.To
	case rpc.EventScanStarted:
		var p rpc.ScanStartedEvent
		if err := env.Decode(&p); err != nil {
			return err
		}
		vm.status.RunID = p.RunID
		vm.status.Session = p.Session
		vm.status.Target = p.Target
		vm.status.Keywords = p.Keywords
		vm.status.StartedAtUnixMs = p.StartedAtUnixMs
		vm.status.Scanned, vm.status.Matched, vm.status.Forwarded = 0, 0, 0
		vm.status.LastMsgID = 0
	case rpc.EventScanProgress:
		var p rpc.ScanProgressEvent
		if err := env.Decode(&p); err != nil {
			return err
		}
		if p.RunID != vm.status.RunID {
			return nil
		}
		vm.status.Scanned = p.Scanned
		vm.status.Matched = p.Matched
		vm.status.Forwarded = p.Forwarded
		vm.status.LastMsgID = p.LastMsgID
	case rpc.EventScanFinished:
		var p rpc.ScanFinishedEvent
		if err := env.Decode(&p); err != nil {
			return err
		}
		vm.status.Last = &p
		vm.status.Scanned = p.Scanned
		vm.status.Matched = p.Matched
		vm.status.Forwarded = p.Forwarded
	case rpc.EventSessionSelected:
		var p rpc.SessionSelectedEvent
		if err := env.Decode(&p); err != nil {
			return err
		}
		vm.setActive(p.Name)
	}
	return nil
}

func (vm *ViewModel) setActive(name string) {
	vm.status.Session = name
	for i := range vm.sessions {
		vm.sessions[i].Active = vm.sessions[i].Name == name
	}
}

// Status returns a snapshot of the scan status.
func (vm *ViewModel) Status() rpc.ScanStatus {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// Running reports whether the last known state is Running.
func (vm *ViewModel) Running() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status.State == rpc.StateRunning
}

// Daemon returns the last fetched daemon status, or nil.
func (vm *ViewModel) Daemon() *rpc.DaemonStatus {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.daemon
}

// Sessions returns a copy of the session list.
func (vm *ViewModel) Sessions() []rpc.SessionInfo {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]rpc.SessionInfo, len(vm.sessions))
	copy(out, vm.sessions)
	return out
}

// Runs returns the last fetched run list.
func (vm *ViewModel) Runs() []rpc.RunSummary {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.runs
}
