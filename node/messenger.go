package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxpoletaev/overseer/internal/grpcutil"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/nodeapi"
	"github.com/maxpoletaev/overseer/resource"
)

// ErrPeerInactive is returned when the peer answered that it has been
// deactivated.
var ErrPeerInactive = errors.New("peer is inactive")

// messenger delivers node-to-node messages over the cached connections. A
// connection that reports the peer as unavailable is dropped, so that the
// next call dials again.
type messenger struct {
	conns *nodeapi.ConnRegistry
}

func (m *messenger) call(ctx context.Context, to membership.NodeID, f func(conn nodeapi.Client) error) error {
	conn, err := m.conns.Get(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to connect to node %d: %w", to, err)
	}

	if err := f(conn); err != nil {
		if grpcutil.IsUnavailable(err) {
			m.conns.Drop(to)
		}

		if grpcutil.IsNodeInactive(err) {
			return fmt.Errorf("%w: node %d", ErrPeerInactive, to)
		}

		return err
	}

	return nil
}

func (m *messenger) SendElection(ctx context.Context, to, from membership.NodeID) error {
	return m.call(ctx, to, func(conn nodeapi.Client) error {
		return conn.Election(ctx, from)
	})
}

func (m *messenger) SendOk(ctx context.Context, to, from membership.NodeID) error {
	return m.call(ctx, to, func(conn nodeapi.Client) error {
		return conn.Ok(ctx, from)
	})
}

func (m *messenger) SendCoordinator(ctx context.Context, to, coordinator membership.NodeID) error {
	return m.call(ctx, to, func(conn nodeapi.Client) error {
		return conn.Coordinator(ctx, coordinator)
	})
}

func (m *messenger) Status(ctx context.Context, id membership.NodeID, clock uint64) (*resource.Snapshot, error) {
	var snapshot *resource.Snapshot

	err := m.call(ctx, id, func(conn nodeapi.Client) (err error) {
		snapshot, err = conn.Status(ctx, clock)
		return err
	})

	return snapshot, err
}
