package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/matheus3301/tgscan/internal/api"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Server manages the gRPC server lifecycle for the daemon.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

func socketPath(p Params) string {
	if p.SocketPath != "" {
		return p.SocketPath
	}
	return session.SocketPath()
}

// NewServer creates a gRPC server bound to the daemon's Unix domain socket.
func NewServer(p Params, logger *zap.Logger, scanSvc *api.ScanService, sessionSvc *api.SessionService) (*Server, error) {
	path := socketPath(p)

	// A stale socket from a crashed daemon; the lock guarantees no live owner.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer()
	rpc.RegisterScanServiceServer(srv, scanSvc)
	rpc.RegisterSessionServiceServer(srv, sessionSvc)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: path,
		logger:     logger,
	}, nil
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop drains in-flight calls and removes the socket file. Event streams
// never end on their own, so they are cut when ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("gRPC server stopping")
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
	}
	_ = os.Remove(s.socketPath)
}
