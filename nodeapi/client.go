package nodeapi

import (
	"context"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

// Client is a client to a cluster node's remote endpoint. Every call is bounded
// by the deadline of the given context.
type Client interface {
	// Status requests a fresh resource snapshot, passing the caller's logical
	// clock. The remote clock is advanced past the given value.
	Status(ctx context.Context, clock uint64) (*resource.Snapshot, error)

	// Election notifies the node that the sender has started an election.
	Election(ctx context.Context, from membership.NodeID) error

	// Ok answers an election message received from a node with a lower ID.
	Ok(ctx context.Context, from membership.NodeID) error

	// Coordinator announces the new coordinator.
	Coordinator(ctx context.Context, id membership.NodeID) error

	// IsClosed returns true if the connection has been closed and cannot be used.
	IsClosed() bool

	// Close closes the connection to the cluster node.
	Close() error
}

// Dialer is a function that establishes a connection with a cluster node.
type Dialer func(ctx context.Context, addr string) (Client, error)
