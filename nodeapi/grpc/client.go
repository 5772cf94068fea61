package grpc

import (
	"context"
	"sync/atomic"

	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/maxpoletaev/overseer/internal/multierror"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/nodeapi"
	"github.com/maxpoletaev/overseer/nodeapi/proto"
	"github.com/maxpoletaev/overseer/resource"
)

var (
	_ nodeapi.Client = (*Client)(nil)
)

type Client struct {
	nodeClient proto.NodeClient
	onClose    []func() error
	closed     uint32
}

func (c *Client) addOnCloseHook(f func() error) {
	c.onClose = append(c.onClose, f)
}

func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil // already closed
	}

	errs := multierror.New[int]()

	for idx, f := range c.onClose {
		errs.Add(idx, f())
	}

	return errs.Combined()
}

func (c *Client) IsClosed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}

func (c *Client) Status(ctx context.Context, clock uint64) (*resource.Snapshot, error) {
	resp, err := c.nodeClient.Status(ctx, wrapperspb.UInt64(clock))
	if err != nil {
		return nil, err
	}

	return proto.FromProtoSnapshot(resp)
}

func (c *Client) Election(ctx context.Context, from membership.NodeID) error {
	_, err := c.nodeClient.Election(ctx, wrapperspb.UInt32(uint32(from)))
	return err
}

func (c *Client) Ok(ctx context.Context, from membership.NodeID) error {
	_, err := c.nodeClient.Ok(ctx, wrapperspb.UInt32(uint32(from)))
	return err
}

func (c *Client) Coordinator(ctx context.Context, id membership.NodeID) error {
	_, err := c.nodeClient.Coordinator(ctx, wrapperspb.UInt32(uint32(id)))
	return err
}
