package api

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/journal"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/status"
	"github.com/matheus3301/tgscan/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

// gatedHistory hands out msgs after gate is closed.
type gatedHistory struct {
	gate chan struct{}
	msgs []scan.Message
	pos  int
	err  error
}

func (h *gatedHistory) Next(ctx context.Context) bool {
	select {
	case <-h.gate:
	case <-ctx.Done():
		h.err = ctx.Err()
		return false
	}
	if h.pos >= len(h.msgs) {
		return false
	}
	h.pos++
	return true
}

func (h *gatedHistory) Message() scan.Message { return h.msgs[h.pos-1] }
func (h *gatedHistory) Err() error            { return h.err }

type fakeConn struct {
	history scan.History
}

func (c *fakeConn) History(context.Context, string) (scan.History, error) { return c.history, nil }
func (c *fakeConn) Forward(context.Context, string, int) error            { return nil }

type fakeClient struct {
	conn *fakeConn
}

func (c *fakeClient) Connect(ctx context.Context, _ string, fn func(context.Context, scan.Conn) error) error {
	return fn(ctx, c.conn)
}

type env struct {
	scan     rpc.ScanServiceClient
	sessions rpc.SessionServiceClient
	ctrl     *scan.Controller
	db       *store.DB
	gate     chan struct{}
	shutdown chan struct{}
}

func setup(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	sessDir := filepath.Join(dir, "sessions")
	if err := os.MkdirAll(sessDir, 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"main", "work"} {
		if err := os.WriteFile(filepath.Join(sessDir, name+session.FileExt), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	db, err := store.Open(filepath.Join(dir, "tgscan.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gate := make(chan struct{})
	history := &gatedHistory{gate: gate, msgs: []scan.Message{
		{ID: 3, Text: "bike for sale"},
		{ID: 2, Text: "nothing"},
		{ID: 1, Text: "old bike"},
	}}

	b := bus.New()
	machine := status.NewMachine(b)
	sessStore := session.NewStore(sessDir)
	selector := session.NewSelector(sessStore, machine, b, "main")
	ctrl := scan.NewController(&fakeClient{conn: &fakeConn{history: history}}, machine, selector, b, nil, scan.Options{})

	rec := journal.NewRecorder(db, b, nil, time.Millisecond)
	rec.Start(context.Background())

	shutdown := make(chan struct{}, 1)
	srv := grpc.NewServer()
	rpc.RegisterScanServiceServer(srv, NewScanService(ctrl, selector, db, b, nil))
	rpc.RegisterSessionServiceServer(srv, NewSessionService(SessionServiceParams{
		Store:      sessStore,
		Selector:   selector,
		Machine:    machine,
		SocketPath: "bufconn",
		Shutdown: func() error {
			shutdown <- struct{}{}
			return nil
		},
	}))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ctrl.Shutdown(ctx)
		_ = conn.Close()
		srv.Stop()
		rec.Stop()
	})

	return &env{
		scan:     rpc.NewScanServiceClient(conn),
		sessions: rpc.NewSessionServiceClient(conn),
		ctrl:     ctrl,
		db:       db,
		gate:     gate,
		shutdown: shutdown,
	}
}

// watch pumps the event stream into a channel until ctx ends.
func watch(t *testing.T, ctx context.Context, c rpc.ScanServiceClient) <-chan *rpc.EventEnvelope {
	t.Helper()
	stream, err := c.WatchScanEvents(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	ch := make(chan *rpc.EventEnvelope, 256)
	go func() {
		for {
			evt, err := stream.Recv()
			if err != nil {
				return
			}
			select {
			case ch <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func code(err error) codes.Code {
	return grpcstatus.Code(err)
}

func waitDone(t *testing.T, c *scan.Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for scan to finish")
	}
}

func TestStartScanInvalidRequest(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.scan.StartScan(ctx, &rpc.StartScanRequest{Target: "@market", Keywords: []string{" ", ""}})
	if code(err) != codes.InvalidArgument {
		t.Fatalf("StartScan code = %v, want InvalidArgument (%v)", code(err), err)
	}
	st, err := e.scan.GetScanStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if st.State != rpc.StateStopped {
		t.Errorf("state = %q, want STOPPED", st.State)
	}
}

func TestScanLifecycleOverRPC(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events := watch(t, ctx, e.scan)

	// Session switches until one is seen prove the stream is subscribed
	// before the scan starts.
	names := []string{"main", "work"}
	for i := 0; ; i++ {
		if _, err := e.sessions.SelectSession(ctx, &rpc.SelectSessionRequest{Name: names[i%2]}); err != nil {
			t.Fatal(err)
		}
		select {
		case evt := <-events:
			if evt.Kind != rpc.EventSessionSelected {
				t.Fatalf("first event = %q, want session.selected", evt.Kind)
			}
		case <-time.After(20 * time.Millisecond):
			continue
		}
		break
	}
	if _, err := e.sessions.SelectSession(ctx, &rpc.SelectSessionRequest{Name: "work"}); err != nil {
		t.Fatal(err)
	}

	resp, err := e.scan.StartScan(ctx, &rpc.StartScanRequest{Target: "@market", Keywords: []string{"bike"}})
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	if resp.RunID == "" {
		t.Fatal("empty run id")
	}

	st, err := e.scan.GetScanStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if st.State != rpc.StateRunning || st.Session != "work" || st.RunID != resp.RunID {
		t.Errorf("status while running = %+v", st)
	}

	if _, err := e.scan.StartScan(ctx, &rpc.StartScanRequest{Target: "@x", Keywords: []string{"k"}}); code(err) != codes.FailedPrecondition {
		t.Errorf("second StartScan code = %v, want FailedPrecondition", code(err))
	}
	if _, err := e.sessions.SelectSession(ctx, &rpc.SelectSessionRequest{Name: "main"}); code(err) != codes.FailedPrecondition {
		t.Errorf("SelectSession while running code = %v, want FailedPrecondition", code(err))
	}

	close(e.gate)

	var (
		forwarded []int
		finished  rpc.ScanFinishedEvent
	)
	for finished.RunID == "" {
		var evt *rpc.EventEnvelope
		select {
		case evt = <-events:
		case <-ctx.Done():
			t.Fatal("timeout waiting for scan.finished")
		}
		if evt.EventID == "" {
			t.Error("event without id")
		}
		switch evt.Kind {
		case rpc.EventScanForwarded:
			var p rpc.ScanForwardedEvent
			if err := evt.Decode(&p); err != nil {
				t.Fatal(err)
			}
			forwarded = append(forwarded, p.MsgID)
		case rpc.EventScanFinished:
			if err := evt.Decode(&finished); err != nil {
				t.Fatal(err)
			}
		}
	}
	waitDone(t, e.ctrl)

	if len(forwarded) != 2 || forwarded[0] != 3 || forwarded[1] != 1 {
		t.Errorf("forwarded = %v, want [3 1]", forwarded)
	}
	if finished.Outcome != "completed" || finished.Scanned != 3 || finished.Forwarded != 2 {
		t.Errorf("finished = %+v", finished)
	}

	st, err = e.scan.GetScanStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if st.State != rpc.StateStopped || st.Last == nil || st.Last.RunID != resp.RunID {
		t.Errorf("status after finish = %+v", st)
	}

	stop, err := e.scan.StopScan(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if stop.Stopped {
		t.Error("StopScan reported a running scan after finish")
	}
}

func TestListRunsAndForwards(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	close(e.gate)
	resp, err := e.scan.StartScan(ctx, &rpc.StartScanRequest{Target: "@market", Keywords: []string{"bike"}})
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, e.ctrl)

	// The journal writes asynchronously.
	var runs *rpc.ListRunsResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		runs, err = e.scan.ListRuns(ctx, &rpc.ListRunsRequest{Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		if len(runs.Runs) == 1 && runs.Runs[0].Outcome == "completed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("runs = %+v", runs.Runs)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Runs[0].RunID != resp.RunID || runs.Runs[0].Session != "main" {
		t.Errorf("run = %+v", runs.Runs[0])
	}

	fwds, err := e.scan.ListForwards(ctx, &rpc.ListForwardsRequest{RunID: resp.RunID})
	if err != nil {
		t.Fatal(err)
	}
	if len(fwds.Forwards) != 2 {
		t.Errorf("got %d forwards, want 2", len(fwds.Forwards))
	}

	byPrefix, err := e.scan.ListForwards(ctx, &rpc.ListForwardsRequest{RunID: resp.RunID[:8]})
	if err != nil {
		t.Fatal(err)
	}
	if len(byPrefix.Forwards) != 2 {
		t.Errorf("prefix lookup got %d forwards, want 2", len(byPrefix.Forwards))
	}
	if _, err := e.scan.ListForwards(ctx, &rpc.ListForwardsRequest{RunID: "nope"}); code(err) != codes.NotFound {
		t.Errorf("ListForwards(unknown) code = %v, want NotFound", code(err))
	}

	if _, err := e.scan.ListForwards(ctx, &rpc.ListForwardsRequest{}); code(err) != codes.InvalidArgument {
		t.Errorf("ListForwards without run id code = %v", code(err))
	}
}

func TestSessions(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	list, err := e.sessions.ListSessions(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Active != "main" || len(list.Sessions) != 2 {
		t.Fatalf("ListSessions = %+v", list)
	}
	if !list.Sessions[0].Active || list.Sessions[0].Name != "main" || list.Sessions[1].Active {
		t.Errorf("sessions = %+v", list.Sessions)
	}

	if _, err := e.sessions.SelectSession(ctx, &rpc.SelectSessionRequest{Name: "ghost"}); code(err) != codes.NotFound {
		t.Errorf("SelectSession(ghost) code = %v, want NotFound", code(err))
	}
	sel, err := e.sessions.SelectSession(ctx, &rpc.SelectSessionRequest{Name: "work"})
	if err != nil {
		t.Fatal(err)
	}
	if sel.Active != "work" {
		t.Errorf("active = %q, want work", sel.Active)
	}

	ds, err := e.sessions.GetDaemonStatus(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.PID != os.Getpid() || ds.ActiveSession != "work" || ds.State != rpc.StateStopped {
		t.Errorf("daemon status = %+v", ds)
	}
}

func TestShutdown(t *testing.T) {
	e := setup(t)
	if _, err := e.sessions.Shutdown(context.Background(), &emptypb.Empty{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-e.shutdown:
	default:
		t.Error("shutdown func not called")
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{scan.ErrInvalidRequest, codes.InvalidArgument},
		{scan.ErrAlreadyRunning, codes.FailedPrecondition},
		{session.ErrScanInProgress, codes.FailedPrecondition},
		{session.ErrUnknownSession, codes.NotFound},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if toStatus(nil) != nil {
		t.Error("toStatus(nil) != nil")
	}
}
