package heartbeat

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/maxpoletaev/overseer/membership"
)

const (
	DefaultProbeInterval  = 5 * time.Second
	DefaultConnectTimeout = 2 * time.Second
	DefaultReadTimeout    = 2 * time.Second
)

// Prober periodically checks every peer and keeps the registry up to date.
// When the current coordinator is considered failed, it starts an election.
type Prober struct {
	members  Members
	election Election
	logger   log.Logger
	interval time.Duration
	probe    ProbeFunc
}

func NewProber(members Members, election Election, logger log.Logger, opts ...Option) *Prober {
	p := &Prober{
		members:  members,
		election: election,
		logger:   logger,
		interval: DefaultProbeInterval,
		probe:    NewProbe(DefaultConnectTimeout, DefaultReadTimeout),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Prober) RunLoop(ctx context.Context) {
	level.Info(p.logger).Log(
		"msg", "heartbeat prober started",
		"probe_interval", p.interval,
	)

	for {
		select {
		case <-time.After(p.interval):
			// noop
		case <-ctx.Done():
			level.Info(p.logger).Log("msg", "heartbeat prober stopped")
			return
		}

		p.probeAll(ctx)
	}
}

// probeAll probes every peer exactly once. Peers are probed concurrently, so
// an unresponsive peer only delays the cycle by its own timeout.
func (p *Prober) probeAll(ctx context.Context) {
	errg := errgroup.Group{}

	for _, peer := range p.members.Peers() {
		peer := peer

		errg.Go(func() error {
			err := p.probe(ctx, peer.HeartbeatAddr)
			if err != nil {
				p.handleFailure(peer, err)
			} else {
				p.handleSuccess(peer)
			}

			return nil
		})
	}

	_ = errg.Wait()
}

func (p *Prober) handleSuccess(peer membership.Peer) {
	reconnected, err := p.members.MarkSuccess(peer.ID)
	if err != nil {
		level.Error(p.logger).Log("msg", "failed to update peer state", "peer_id", peer.ID, "err", err)
		return
	}

	if reconnected {
		level.Info(p.logger).Log("msg", "peer reconnected", "peer_id", peer.ID)
	}
}

func (p *Prober) handleFailure(peer membership.Peer, probeErr error) {
	res, err := p.members.MarkFailure(peer.ID)
	if err != nil {
		level.Error(p.logger).Log("msg", "failed to update peer state", "peer_id", peer.ID, "err", err)
		return
	}

	if res.Failures == 1 {
		level.Warn(p.logger).Log(
			"msg", "peer did not answer the probe, monitoring",
			"peer_id", peer.ID,
			"err", probeErr,
		)
	}

	if !res.BecameInactive {
		return
	}

	level.Error(p.logger).Log(
		"msg", "peer considered failed",
		"peer_id", peer.ID,
		"failures", res.Failures,
	)

	if peer.ID == p.election.Coordinator() {
		level.Warn(p.logger).Log("msg", "coordinator is down, starting election", "coordinator", peer.ID)
		p.election.Start()
	}
}
