package membership

import (
	"errors"
	"sync"

	"golang.org/x/exp/slices"
)

// DefaultFailureThreshold is the number of consecutive failed probes after
// which an active peer is considered inactive.
const DefaultFailureThreshold = 3

var ErrUnknownPeer = errors.New("unknown peer")

// FailureResult describes the outcome of a failed probe.
type FailureResult struct {
	// Failures is the number of consecutive failures, including this one.
	Failures int
	// BecameInactive is set when this failure made an active peer inactive.
	BecameInactive bool
}

// Registry keeps the reachability state of every known node of the cluster,
// including the local one. The local node is always reported as active.
type Registry struct {
	mut       sync.RWMutex
	selfID    NodeID
	peers     map[NodeID]*Peer
	order     []NodeID
	threshold int
}

// NewRegistry creates a registry for the given cluster members. All peers
// start as active with no failures.
func NewRegistry(selfID NodeID, peers []Peer, threshold int) *Registry {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}

	r := &Registry{
		selfID:    selfID,
		peers:     make(map[NodeID]*Peer, len(peers)),
		order:     make([]NodeID, 0, len(peers)),
		threshold: threshold,
	}

	for _, p := range peers {
		p := p
		p.Status = StatusActive
		p.Failures = 0

		if _, ok := r.peers[p.ID]; !ok {
			r.order = append(r.order, p.ID)
		}

		r.peers[p.ID] = &p
	}

	slices.Sort(r.order)

	return r
}

// SelfID returns the ID of the local node.
func (r *Registry) SelfID() NodeID {
	return r.selfID
}

// Threshold returns the number of consecutive failures that makes a peer inactive.
func (r *Registry) Threshold() int {
	return r.threshold
}

// IDs returns the IDs of all cluster members in ascending order.
func (r *Registry) IDs() []NodeID {
	r.mut.RLock()
	defer r.mut.RUnlock()

	return slices.Clone(r.order)
}

// MaxID returns the highest known member ID, or the local ID if no members are known.
func (r *Registry) MaxID() NodeID {
	r.mut.RLock()
	defer r.mut.RUnlock()

	if len(r.order) == 0 {
		return r.selfID
	}

	return r.order[len(r.order)-1]
}

// Get returns a copy of the peer record.
func (r *Registry) Get(id NodeID) (Peer, error) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	p, ok := r.peers[id]
	if !ok {
		return Peer{}, ErrUnknownPeer
	}

	return *p, nil
}

// Peers returns copies of all peer records, excluding the local node, in ID order.
func (r *Registry) Peers() []Peer {
	r.mut.RLock()
	defer r.mut.RUnlock()

	peers := make([]Peer, 0, len(r.order))

	for _, id := range r.order {
		if id != r.selfID {
			peers = append(peers, *r.peers[id])
		}
	}

	return peers
}

// IsActive returns true if the peer is known and considered reachable.
func (r *Registry) IsActive(id NodeID) bool {
	if id == r.selfID {
		return true
	}

	r.mut.RLock()
	defer r.mut.RUnlock()

	p, ok := r.peers[id]

	return ok && p.IsActive()
}

// MarkSuccess records a successful probe. The failure counter is reset and the
// peer becomes active. The returned flag tells whether the peer was inactive
// before, meaning it has reconnected.
func (r *Registry) MarkSuccess(id NodeID) (bool, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return false, ErrUnknownPeer
	}

	reconnected := !p.IsActive()
	p.Failures = 0
	p.Status = StatusActive

	return reconnected, nil
}

// MarkFailure records a failed probe. Once the number of consecutive failures
// reaches the threshold, an active peer becomes inactive.
func (r *Registry) MarkFailure(id NodeID) (FailureResult, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return FailureResult{}, ErrUnknownPeer
	}

	p.Failures++

	res := FailureResult{Failures: p.Failures}

	if p.Failures >= r.threshold && p.IsActive() {
		p.Status = StatusInactive
		res.BecameInactive = true
	}

	return res, nil
}

// MarkInactive immediately marks the peer as inactive, without waiting for
// the failure threshold. Used when a direct call to the peer fails. Returns
// true if the peer was active before the call.
func (r *Registry) MarkInactive(id NodeID) (bool, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return false, ErrUnknownPeer
	}

	if !p.IsActive() {
		return false, nil
	}

	p.Status = StatusInactive

	return true, nil
}
