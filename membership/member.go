package membership

import "fmt"

// NodeID is a unique cluster node identifier. IDs are totally ordered and the
// order defines election priority: the highest ID wins.
type NodeID uint32

func (id NodeID) String() string {
	return fmt.Sprintf("%d", id)
}

// Peer is the local view of another node in the cluster.
type Peer struct {
	// ID is the unique identifier of the node.
	ID NodeID
	// RPCAddr is the address of the node's gRPC endpoint.
	RPCAddr string
	// HeartbeatAddr is the address of the node's liveness responder.
	HeartbeatAddr string
	// Status tells whether the node is considered reachable.
	Status Status
	// Failures is the number of consecutive failed probes.
	Failures int
}

// IsActive returns true if the peer is considered reachable.
func (p *Peer) IsActive() bool {
	return p.Status == StatusActive
}
