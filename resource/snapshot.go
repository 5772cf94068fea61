package resource

import (
	"fmt"
	"time"

	"github.com/maxpoletaev/overseer/membership"
)

// Snapshot is a point-in-time reading of a node's resources, stamped with the
// node's logical clock at the moment of collection.
type Snapshot struct {
	NodeID      membership.NodeID
	Clock       uint64
	CPUPercent  float64
	MemPercent  float64
	MemTotalGB  uint64
	LoadAvg     float64 // negative when not available on the platform
	Processors  int
	Uptime      time.Duration
	CollectedAt time.Time
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("node %d -> [clock: %d] cpu: %.2f%% | memory: %.2f%%",
		s.NodeID, s.Clock, s.CPUPercent, s.MemPercent)
}

// Sampler produces resource snapshots of the local node.
type Sampler interface {
	Sample(id membership.NodeID, clock uint64) Snapshot
}

// SamplerFunc is an adapter to allow the use of ordinary functions as samplers.
type SamplerFunc func(id membership.NodeID, clock uint64) Snapshot

func (f SamplerFunc) Sample(id membership.NodeID, clock uint64) Snapshot {
	return f(id, clock)
}
