package client

import (
	"context"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn    *grpc.ClientConn
	Scan    rpc.ScanServiceClient
	Session rpc.SessionServiceClient
}

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := rpc.Dial(socketPath)
	if err != nil {
		return nil, oops.With("socket", socketPath).Wrapf(err, "dial daemon")
	}
	return FromConn(conn), nil
}

// FromConn wraps an existing connection.
func FromConn(conn *grpc.ClientConn) *Client {
	return &Client{
		conn:    conn,
		Scan:    rpc.NewScanServiceClient(conn),
		Session: rpc.NewSessionServiceClient(conn),
	}
}

// Probe reports whether a daemon answers on socketPath within timeout.
func Probe(socketPath string, timeout time.Duration) bool {
	c, err := New(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err = c.Session.GetDaemonStatus(ctx, &emptypb.Empty{})
	return err == nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
