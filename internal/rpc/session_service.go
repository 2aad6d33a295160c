package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const sessionServiceName = "tgscan.v1.SessionService"

// SessionServiceServer is the daemon side of session selection and daemon
// management.
type SessionServiceServer interface {
	ListSessions(context.Context, *emptypb.Empty) (*ListSessionsResponse, error)
	SelectSession(context.Context, *SelectSessionRequest) (*SelectSessionResponse, error)
	GetDaemonStatus(context.Context, *emptypb.Empty) (*DaemonStatus, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// UnimplementedSessionServiceServer answers Unimplemented to every call.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) ListSessions(context.Context, *emptypb.Empty) (*ListSessionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSessions not implemented")
}
func (UnimplementedSessionServiceServer) SelectSession(context.Context, *SelectSessionRequest) (*SelectSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SelectSession not implemented")
}
func (UnimplementedSessionServiceServer) GetDaemonStatus(context.Context, *emptypb.Empty) (*DaemonStatus, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDaemonStatus not implemented")
}
func (UnimplementedSessionServiceServer) Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Shutdown not implemented")
}

// SessionServiceDesc describes SessionService for grpc.Server.RegisterService.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: sessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(sessionServiceName, "ListSessions", func(srv any, ctx context.Context, in *emptypb.Empty) (*ListSessionsResponse, error) {
			return srv.(SessionServiceServer).ListSessions(ctx, in)
		}),
		unary(sessionServiceName, "SelectSession", func(srv any, ctx context.Context, in *SelectSessionRequest) (*SelectSessionResponse, error) {
			return srv.(SessionServiceServer).SelectSession(ctx, in)
		}),
		unary(sessionServiceName, "GetDaemonStatus", func(srv any, ctx context.Context, in *emptypb.Empty) (*DaemonStatus, error) {
			return srv.(SessionServiceServer).GetDaemonStatus(ctx, in)
		}),
		unary(sessionServiceName, "Shutdown", func(srv any, ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
			return srv.(SessionServiceServer).Shutdown(ctx, in)
		}),
	},
	Metadata: "tgscan/v1/session.proto",
}

// RegisterSessionServiceServer registers srv on s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

// SessionServiceClient is the client side of SessionService.
type SessionServiceClient interface {
	ListSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListSessionsResponse, error)
	SelectSession(ctx context.Context, in *SelectSessionRequest, opts ...grpc.CallOption) (*SelectSessionResponse, error)
	GetDaemonStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error)
	Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionServiceClient creates a client over cc.
func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc: cc}
}

func (c *sessionServiceClient) ListSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, "/"+sessionServiceName+"/ListSessions", in, opts)
}

func (c *sessionServiceClient) SelectSession(ctx context.Context, in *SelectSessionRequest, opts ...grpc.CallOption) (*SelectSessionResponse, error) {
	return invoke[SelectSessionResponse](ctx, c.cc, "/"+sessionServiceName+"/SelectSession", in, opts)
}

func (c *sessionServiceClient) GetDaemonStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error) {
	return invoke[DaemonStatus](ctx, c.cc, "/"+sessionServiceName+"/GetDaemonStatus", in, opts)
}

func (c *sessionServiceClient) Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "/"+sessionServiceName+"/Shutdown", in, opts)
}
