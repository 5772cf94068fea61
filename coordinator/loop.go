package coordinator

import (
	"context"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/overseer/internal/generic"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

type Config struct {
	// Interval between two role checks. A collection round runs on every
	// check the local node is the coordinator.
	Interval time.Duration
	// CallTimeout bounds a status query to a single peer.
	CallTimeout time.Duration
	Logger      kitlog.Logger
	Gate        Gate
	Reporter    Reporter
}

func DefaultConfig() Config {
	return Config{
		Interval:    10 * time.Second,
		CallTimeout: 2 * time.Second,
		Logger:      kitlog.NewNopLogger(),
	}
}

// Loop runs on every node, but only the coordinator collects the state of
// the cluster. The role is checked again on every cycle since it can change
// between cycles.
type Loop struct {
	node        Node
	members     Members
	clock       Clock
	peers       Peers
	gate        Gate
	reporter    Reporter
	logger      kitlog.Logger
	interval    time.Duration
	callTimeout time.Duration

	mut  sync.RWMutex
	last []resource.Snapshot
}

func New(node Node, members Members, clock Clock, peers Peers, conf Config) *Loop {
	l := &Loop{
		node:        node,
		members:     members,
		clock:       clock,
		peers:       peers,
		gate:        conf.Gate,
		reporter:    conf.Reporter,
		logger:      conf.Logger,
		interval:    conf.Interval,
		callTimeout: conf.CallTimeout,
	}

	if l.gate == nil {
		l.gate = openGate{}
	}

	if l.logger == nil {
		l.logger = kitlog.NewNopLogger()
	}

	return l
}

func (l *Loop) RunLoop(ctx context.Context) {
	level.Info(l.logger).Log(
		"msg", "coordinator loop started",
		"interval", l.interval,
	)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// noop
		case <-ctx.Done():
			level.Info(l.logger).Log("msg", "coordinator loop stopped")
			return
		}

		l.runCycle(ctx)
	}
}

func (l *Loop) runCycle(ctx context.Context) {
	if !l.node.IsActive() || !l.node.IsCoordinator() {
		l.gate.Stop()
		return
	}

	if err := l.gate.EnsureRunning(); err != nil {
		level.Error(l.logger).Log("msg", "failed to start auth service", "err", err)
	}

	l.clock.Tick()

	snapshots := l.Collect(ctx)
	if snapshots == nil {
		return
	}

	l.mut.Lock()
	l.last = snapshots
	l.mut.Unlock()

	if !l.gate.Authenticated() {
		level.Debug(l.logger).Log("msg", "no authenticated observer, report skipped")
		return
	}

	if l.reporter == nil {
		return
	}

	if err := l.reporter.Report(l.members.SelfID(), snapshots); err != nil {
		level.Error(l.logger).Log("msg", "failed to emit report", "err", err)
	}
}

// Collect performs a single collection round. The list starts with the
// local reading, followed by the readings of the active peers in membership
// order. Peers that fail to answer are omitted from the round. The round is
// abandoned and nil is returned if the local node is deactivated meanwhile.
func (l *Loop) Collect(ctx context.Context) []resource.Snapshot {
	own := l.node.LocalStatus()
	if own == nil {
		level.Debug(l.logger).Log("msg", "node is inactive, collection round abandoned")
		return nil
	}

	selfID := l.members.SelfID()
	clock := l.clock.Load()

	targets := generic.Filter(l.members.IDs(), func(id membership.NodeID) bool {
		return id != selfID && l.members.IsActive(id)
	})

	results := make([]*resource.Snapshot, len(targets))
	errg := errgroup.Group{}

	for i, id := range targets {
		i, id := i, id

		errg.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, l.callTimeout)
			defer cancel()

			snapshot, err := l.peers.Status(ctx, id, clock)
			if err != nil {
				level.Warn(l.logger).Log(
					"msg", "status query failed",
					"peer_id", id,
					"op", "status",
					"err", err,
				)

				return nil
			}

			results[i] = snapshot

			return nil
		})
	}

	_ = errg.Wait()

	snapshots := make([]resource.Snapshot, 0, len(targets)+1)
	snapshots = append(snapshots, *own)

	for _, s := range results {
		if s != nil {
			snapshots = append(snapshots, *s)
		}
	}

	return snapshots
}

// LastRound returns the snapshots collected during the last round.
func (l *Loop) LastRound() []resource.Snapshot {
	l.mut.RLock()
	defer l.mut.RUnlock()

	out := make([]resource.Snapshot, len(l.last))
	copy(out, l.last)

	return out
}

type openGate struct{}

func (openGate) EnsureRunning() error { return nil }

func (openGate) Stop() {}

func (openGate) Authenticated() bool { return true }
