package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const scanServiceName = "tgscan.v1.ScanService"

// ScanServiceServer is the daemon side of the scan control plane.
type ScanServiceServer interface {
	StartScan(context.Context, *StartScanRequest) (*StartScanResponse, error)
	StopScan(context.Context, *emptypb.Empty) (*StopScanResponse, error)
	GetScanStatus(context.Context, *emptypb.Empty) (*ScanStatus, error)
	ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error)
	ListForwards(context.Context, *ListForwardsRequest) (*ListForwardsResponse, error)
	WatchScanEvents(*emptypb.Empty, ScanService_WatchScanEventsServer) error
}

// ScanService_WatchScanEventsServer is the server side of the event stream.
type ScanService_WatchScanEventsServer = grpc.ServerStreamingServer[EventEnvelope]

// UnimplementedScanServiceServer answers Unimplemented to every call.
type UnimplementedScanServiceServer struct{}

func (UnimplementedScanServiceServer) StartScan(context.Context, *StartScanRequest) (*StartScanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartScan not implemented")
}
func (UnimplementedScanServiceServer) StopScan(context.Context, *emptypb.Empty) (*StopScanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StopScan not implemented")
}
func (UnimplementedScanServiceServer) GetScanStatus(context.Context, *emptypb.Empty) (*ScanStatus, error) {
	return nil, status.Error(codes.Unimplemented, "method GetScanStatus not implemented")
}
func (UnimplementedScanServiceServer) ListRuns(context.Context, *ListRunsRequest) (*ListRunsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRuns not implemented")
}
func (UnimplementedScanServiceServer) ListForwards(context.Context, *ListForwardsRequest) (*ListForwardsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListForwards not implemented")
}
func (UnimplementedScanServiceServer) WatchScanEvents(*emptypb.Empty, ScanService_WatchScanEventsServer) error {
	return status.Error(codes.Unimplemented, "method WatchScanEvents not implemented")
}

// ScanServiceDesc describes ScanService for grpc.Server.RegisterService.
var ScanServiceDesc = grpc.ServiceDesc{
	ServiceName: scanServiceName,
	HandlerType: (*ScanServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(scanServiceName, "StartScan", func(srv any, ctx context.Context, in *StartScanRequest) (*StartScanResponse, error) {
			return srv.(ScanServiceServer).StartScan(ctx, in)
		}),
		unary(scanServiceName, "StopScan", func(srv any, ctx context.Context, in *emptypb.Empty) (*StopScanResponse, error) {
			return srv.(ScanServiceServer).StopScan(ctx, in)
		}),
		unary(scanServiceName, "GetScanStatus", func(srv any, ctx context.Context, in *emptypb.Empty) (*ScanStatus, error) {
			return srv.(ScanServiceServer).GetScanStatus(ctx, in)
		}),
		unary(scanServiceName, "ListRuns", func(srv any, ctx context.Context, in *ListRunsRequest) (*ListRunsResponse, error) {
			return srv.(ScanServiceServer).ListRuns(ctx, in)
		}),
		unary(scanServiceName, "ListForwards", func(srv any, ctx context.Context, in *ListForwardsRequest) (*ListForwardsResponse, error) {
			return srv.(ScanServiceServer).ListForwards(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchScanEvents",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(emptypb.Empty)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(ScanServiceServer).WatchScanEvents(in, &grpc.GenericServerStream[emptypb.Empty, EventEnvelope]{ServerStream: stream})
			},
		},
	},
	Metadata: "tgscan/v1/scan.proto",
}

// RegisterScanServiceServer registers srv on s.
func RegisterScanServiceServer(s grpc.ServiceRegistrar, srv ScanServiceServer) {
	s.RegisterService(&ScanServiceDesc, srv)
}

// ScanServiceClient is the client side of the scan control plane.
type ScanServiceClient interface {
	StartScan(ctx context.Context, in *StartScanRequest, opts ...grpc.CallOption) (*StartScanResponse, error)
	StopScan(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StopScanResponse, error)
	GetScanStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ScanStatus, error)
	ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error)
	ListForwards(ctx context.Context, in *ListForwardsRequest, opts ...grpc.CallOption) (*ListForwardsResponse, error)
	WatchScanEvents(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[EventEnvelope], error)
}

type scanServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewScanServiceClient creates a client over cc.
func NewScanServiceClient(cc grpc.ClientConnInterface) ScanServiceClient {
	return &scanServiceClient{cc: cc}
}

func (c *scanServiceClient) StartScan(ctx context.Context, in *StartScanRequest, opts ...grpc.CallOption) (*StartScanResponse, error) {
	return invoke[StartScanResponse](ctx, c.cc, "/"+scanServiceName+"/StartScan", in, opts)
}

func (c *scanServiceClient) StopScan(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StopScanResponse, error) {
	return invoke[StopScanResponse](ctx, c.cc, "/"+scanServiceName+"/StopScan", in, opts)
}

func (c *scanServiceClient) GetScanStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*ScanStatus, error) {
	return invoke[ScanStatus](ctx, c.cc, "/"+scanServiceName+"/GetScanStatus", in, opts)
}

func (c *scanServiceClient) ListRuns(ctx context.Context, in *ListRunsRequest, opts ...grpc.CallOption) (*ListRunsResponse, error) {
	return invoke[ListRunsResponse](ctx, c.cc, "/"+scanServiceName+"/ListRuns", in, opts)
}

func (c *scanServiceClient) ListForwards(ctx context.Context, in *ListForwardsRequest, opts ...grpc.CallOption) (*ListForwardsResponse, error) {
	return invoke[ListForwardsResponse](ctx, c.cc, "/"+scanServiceName+"/ListForwards", in, opts)
}

func (c *scanServiceClient) WatchScanEvents(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[EventEnvelope], error) {
	stream, err := c.cc.NewStream(ctx, &ScanServiceDesc.Streams[0], "/"+scanServiceName+"/WatchScanEvents", withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, EventEnvelope]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
