package api

import (
	"context"
	"os"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// SessionService implements the SessionService gRPC service.
type SessionService struct {
	rpc.UnimplementedSessionServiceServer

	store      *session.Store
	selector   *session.Selector
	machine    *status.Machine
	socketPath string
	startedAt  time.Time
	shutdown   func() error
	logger     *zap.Logger
}

// SessionServiceParams configures a SessionService.
type SessionServiceParams struct {
	Store      *session.Store
	Selector   *session.Selector
	Machine    *status.Machine
	SocketPath string
	// Shutdown stops the daemon. Nil disables the Shutdown RPC.
	Shutdown func() error
	Logger   *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(p SessionServiceParams) *SessionService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &SessionService{
		store:      p.Store,
		selector:   p.Selector,
		machine:    p.Machine,
		socketPath: p.SocketPath,
		startedAt:  time.Now(),
		shutdown:   p.Shutdown,
		logger:     p.Logger,
	}
}

func (s *SessionService) ListSessions(_ context.Context, _ *emptypb.Empty) (*rpc.ListSessionsResponse, error) {
	names, err := s.store.List()
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list sessions: %v", err)
	}
	active := s.selector.Active()
	resp := &rpc.ListSessionsResponse{
		Sessions: make([]rpc.SessionInfo, 0, len(names)),
		Active:   active,
	}
	for _, name := range names {
		resp.Sessions = append(resp.Sessions, rpc.SessionInfo{
			Name:   name,
			Path:   s.store.Path(name),
			Active: name == active,
		})
	}
	return resp, nil
}

func (s *SessionService) SelectSession(_ context.Context, req *rpc.SelectSessionRequest) (*rpc.SelectSessionResponse, error) {
	if err := s.selector.Select(req.Name); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("session selected", zap.String("session", req.Name))
	return &rpc.SelectSessionResponse{Active: s.selector.Active()}, nil
}

func (s *SessionService) GetDaemonStatus(_ context.Context, _ *emptypb.Empty) (*rpc.DaemonStatus, error) {
	return &rpc.DaemonStatus{
		PID:             os.Getpid(),
		BaseDir:         session.BaseDir(),
		Socket:          s.socketPath,
		StartedAtUnixMs: s.startedAt.UnixMilli(),
		UptimeMs:        time.Since(s.startedAt).Milliseconds(),
		ActiveSession:   s.selector.Active(),
		State:           string(s.machine.Current()),
	}, nil
}

func (s *SessionService) Shutdown(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if s.shutdown == nil {
		return nil, grpcstatus.Error(codes.Unimplemented, "shutdown disabled")
	}
	s.logger.Info("shutdown requested over rpc")
	if err := s.shutdown(); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "shutdown: %v", err)
	}
	return &emptypb.Empty{}, nil
}
