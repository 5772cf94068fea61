package heartbeat

import (
	"github.com/maxpoletaev/overseer/membership"
)

// Members is the part of the peer registry the prober updates.
type Members interface {
	Peers() []membership.Peer
	MarkSuccess(id membership.NodeID) (bool, error)
	MarkFailure(id membership.NodeID) (membership.FailureResult, error)
}

// Election is notified when the coordinator is considered failed.
type Election interface {
	Coordinator() membership.NodeID
	Start()
}
