package api

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ScanService implements the ScanService gRPC service.
type ScanService struct {
	rpc.UnimplementedScanServiceServer

	ctrl     *scan.Controller
	selector *session.Selector
	db       *store.DB
	bus      *bus.Bus
	logger   *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewScanService creates a new scan service. db may be nil, in which case
// the run history is unavailable.
func NewScanService(ctrl *scan.Controller, selector *session.Selector, db *store.DB, b *bus.Bus, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		ctrl:     ctrl,
		selector: selector,
		db:       db,
		bus:      b,
		logger:   logger,
		closed:   make(chan struct{}),
	}
}

// Close ends all open event streams.
func (s *ScanService) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *ScanService) StartScan(_ context.Context, req *rpc.StartScanRequest) (*rpc.StartScanResponse, error) {
	r, err := scan.NewRequest(req.Target, req.Keywords)
	if err != nil {
		return nil, toStatus(err)
	}
	runID, err := s.ctrl.Start(r)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.StartScanResponse{RunID: runID}, nil
}

func (s *ScanService) StopScan(_ context.Context, _ *emptypb.Empty) (*rpc.StopScanResponse, error) {
	return &rpc.StopScanResponse{Stopped: s.ctrl.Stop()}, nil
}

func (s *ScanService) GetScanStatus(_ context.Context, _ *emptypb.Empty) (*rpc.ScanStatus, error) {
	snap := s.ctrl.Snapshot()
	resp := &rpc.ScanStatus{
		State:   string(snap.State),
		Session: snap.Session,
	}
	if cur := snap.Current; cur != nil {
		resp.RunID = cur.RunID
		resp.Target = snap.Target
		resp.Keywords = snap.Keywords
		resp.StartedAtUnixMs = snap.Started.UnixMilli()
		resp.Scanned = cur.Scanned
		resp.Matched = cur.Matched
		resp.Forwarded = cur.Forwarded
		resp.LastMsgID = cur.LastMsgID
	}
	if snap.Last != nil {
		last := finishedSummary(*snap.Last)
		resp.Last = &last
	}
	return resp, nil
}

func (s *ScanService) ListRuns(_ context.Context, req *rpc.ListRunsRequest) (*rpc.ListRunsResponse, error) {
	if s.db == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "journal not available")
	}
	runs, err := s.db.ListRuns(req.Session, int(req.Limit))
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list runs: %v", err)
	}
	resp := &rpc.ListRunsResponse{Runs: make([]rpc.RunSummary, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, rpc.RunSummary{
			RunID:            r.ID,
			Session:          r.Session,
			Target:           r.Target,
			Keywords:         r.Keywords,
			StartedAtUnixMs:  r.StartedAt,
			FinishedAtUnixMs: r.FinishedAt,
			Outcome:          r.Outcome,
			ErrorKind:        r.ErrorKind,
			Error:            r.Error,
			Scanned:          r.Scanned,
			Matched:          r.Matched,
			Forwarded:        r.Forwarded,
		})
	}
	return resp, nil
}

func (s *ScanService) ListForwards(_ context.Context, req *rpc.ListForwardsRequest) (*rpc.ListForwardsResponse, error) {
	if s.db == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "journal not available")
	}
	if req.RunID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "run_id is required")
	}
	id, err := s.db.ResolveRunID(req.RunID)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return nil, grpcstatus.Errorf(codes.NotFound, "run %q not found", req.RunID)
	case errors.Is(err, store.ErrAmbiguousRun):
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "run id %q matches several runs", req.RunID)
	case err != nil:
		return nil, grpcstatus.Errorf(codes.Internal, "resolve run: %v", err)
	}
	fwds, err := s.db.ListForwards(id)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list forwards: %v", err)
	}
	resp := &rpc.ListForwardsResponse{Forwards: make([]rpc.ForwardRecord, 0, len(fwds))}
	for _, f := range fwds {
		resp.Forwards = append(resp.Forwards, rpc.ForwardRecord{
			MsgID:             f.MsgID,
			Keyword:           f.Keyword,
			ForwardedAtUnixMs: f.ForwardedAt,
		})
	}
	return resp, nil
}

// WatchScanEvents streams scan and session events until the client goes away.
func (s *ScanService) WatchScanEvents(_ *emptypb.Empty, stream rpc.ScanService_WatchScanEventsServer) error {
	ch, unsub := s.bus.Subscribe("", 1024)
	defer unsub()

	// Headers mark the subscription as live for clients that wait on them.
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	for {
		select {
		case evt := <-ch:
			env, ok := envelope(evt, s.selector.Active())
			if !ok {
				continue
			}
			if err := stream.Send(env); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		case <-s.closed:
			return nil
		}
	}
}
