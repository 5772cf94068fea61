package coordinator

//go:generate mockgen -source=facilities.go -destination=facilities_mock_test.go -package=coordinator

import (
	"context"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

// Node reports the role of the local node and takes its local reading.
type Node interface {
	IsActive() bool
	IsCoordinator() bool
	// LocalStatus advances the clock and samples the local node. It returns
	// nil if the node is no longer active.
	LocalStatus() *resource.Snapshot
}

type Members interface {
	SelfID() membership.NodeID
	IDs() []membership.NodeID
	IsActive(id membership.NodeID) bool
}

type Clock interface {
	Tick() uint64
	Load() uint64
}

// Peers queries the resource status of other nodes.
type Peers interface {
	Status(ctx context.Context, id membership.NodeID, clock uint64) (*resource.Snapshot, error)
}

// Gate is the authentication service that decides whether anyone is
// listening to the reports. It only runs on the coordinator.
type Gate interface {
	EnsureRunning() error
	Stop()
	Authenticated() bool
}

// Reporter publishes the result of a collection round.
type Reporter interface {
	Report(coordinator membership.NodeID, snapshots []resource.Snapshot) error
}
