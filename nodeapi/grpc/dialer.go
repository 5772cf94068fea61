package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/keepalive"

	"github.com/maxpoletaev/overseer/nodeapi"
	"github.com/maxpoletaev/overseer/nodeapi/proto"
)

// Dial establishes a gRPC connection with a cluster node. The call blocks
// until the connection is ready or the context expires.
func Dial(ctx context.Context, addr string) (nodeapi.Client, error) {
	return DialWithOptions(ctx, addr)
}

// DialWithOptions is the same as Dial but allows to pass extra dial options,
// such as a custom context dialer in tests.
func DialWithOptions(ctx context.Context, addr string, extra ...grpc.DialOption) (nodeapi.Client, error) {
	opts := []grpc.DialOption{
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time: 10 * time.Second, // ping every 10 seconds if there is no activity
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.UseCompressor(gzip.Name)),
	}

	conn, err := grpc.DialContext(ctx, addr, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial failed: %w", err)
	}

	c := &Client{
		nodeClient: proto.NewNodeClient(conn),
	}

	c.addOnCloseHook(conn.Close)

	return c, nil
}
