package election

import (
	"context"
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/maxpoletaev/overseer/membership"
)

const (
	opElection    = "election"
	opOk          = "ok"
	opCoordinator = "coordinator"
)

// Members is the view of the cluster the election works with.
type Members interface {
	SelfID() membership.NodeID
	MaxID() membership.NodeID
	IDs() []membership.NodeID
	IsActive(id membership.NodeID) bool
	MarkInactive(id membership.NodeID) (bool, error)
}

// Transport delivers election messages to other nodes.
type Transport interface {
	SendElection(ctx context.Context, to, from membership.NodeID) error
	SendOk(ctx context.Context, to, from membership.NodeID) error
	SendCoordinator(ctx context.Context, to, coordinator membership.NodeID) error
}

type Config struct {
	// DecisionWindow is how long a candidate waits for an ok answer from a
	// node with a higher ID before announcing itself.
	DecisionWindow time.Duration
	// CallTimeout bounds every message sent to another node.
	CallTimeout time.Duration
	Logger      kitlog.Logger
}

func DefaultConfig() Config {
	return Config{
		DecisionWindow: 3 * time.Second,
		CallTimeout:    2 * time.Second,
		Logger:         kitlog.NewNopLogger(),
	}
}
