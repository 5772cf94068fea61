package auth

import (
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

type Members interface {
	SelfID() membership.NodeID
	Peers() []membership.Peer
}

// Rounds gives access to the result of the last collection round.
type Rounds interface {
	LastRound() []resource.Snapshot
}
