// Package discovery finds the other members of the cluster before the node
// starts. Nodes gossip their IDs and addresses as memberlist node metadata.
package discovery

import (
	"context"
	"fmt"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/memberlist"
	"golang.org/x/exp/slices"

	"github.com/maxpoletaev/overseer/membership"
)

type Config struct {
	BindAddr     string
	BindPort     int
	Join         []string
	PollInterval time.Duration
	Logger       kitlog.Logger
}

func DefaultConfig() Config {
	return Config{
		BindAddr:     "127.0.0.1",
		BindPort:     7946,
		PollInterval: 200 * time.Millisecond,
		Logger:       kitlog.NewNopLogger(),
	}
}

type Discovery struct {
	list     *memberlist.Memberlist
	logger   kitlog.Logger
	interval time.Duration
}

// New starts gossiping the given peer record.
func New(self membership.Peer, conf Config) (*Discovery, error) {
	meta, err := encodeMeta(self)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node meta: %w", err)
	}

	mlConf := memberlist.DefaultLocalConfig()
	mlConf.Name = fmt.Sprintf("node-%d", self.ID)
	mlConf.BindAddr = conf.BindAddr
	mlConf.BindPort = conf.BindPort
	mlConf.AdvertisePort = conf.BindPort
	mlConf.Delegate = &delegate{meta: meta}
	mlConf.LogOutput = kitlog.NewStdlibAdapter(level.Debug(conf.Logger))

	list, err := memberlist.Create(mlConf)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}

	d := &Discovery{
		list:     list,
		logger:   conf.Logger,
		interval: conf.PollInterval,
	}

	if len(conf.Join) > 0 {
		if err := d.Join(conf.Join); err != nil {
			_ = list.Shutdown()
			return nil, err
		}
	}

	return d, nil
}

// LocalAddr returns the gossip address other nodes can join.
func (d *Discovery) LocalAddr() string {
	node := d.list.LocalNode()
	return fmt.Sprintf("%s:%d", node.Addr, node.Port)
}

func (d *Discovery) Join(addrs []string) error {
	n, err := d.list.Join(addrs)
	if err != nil {
		return fmt.Errorf("failed to join cluster: %w", err)
	}

	level.Info(d.logger).Log("msg", "joined discovery cluster", "contacted", n)

	return nil
}

// Peers returns the records of all discovered nodes, including the local
// one, in ID order. Nodes with unreadable metadata are skipped.
func (d *Discovery) Peers() []membership.Peer {
	nodes := d.list.Members()
	peers := make([]membership.Peer, 0, len(nodes))

	for _, node := range nodes {
		peer, err := decodeMeta(node.Meta)
		if err != nil {
			level.Warn(d.logger).Log("msg", "skipping node with invalid meta", "node", node.Name, "err", err)
			continue
		}

		peers = append(peers, peer)
	}

	slices.SortFunc(peers, func(a, b membership.Peer) bool {
		return a.ID < b.ID
	})

	return peers
}

// WaitForPeers blocks until at least n nodes are discovered or the context
// is done.
func (d *Discovery) WaitForPeers(ctx context.Context, n int) ([]membership.Peer, error) {
	for {
		peers := d.Peers()
		if len(peers) >= n {
			return peers, nil
		}

		select {
		case <-time.After(d.interval):
			// noop
		case <-ctx.Done():
			return nil, fmt.Errorf("discovered %d of %d nodes: %w", len(peers), n, ctx.Err())
		}
	}
}

// Close leaves the gossip cluster and stops the memberlist.
func (d *Discovery) Close(timeout time.Duration) error {
	if err := d.list.Leave(timeout); err != nil {
		level.Warn(d.logger).Log("msg", "failed to leave discovery cluster", "err", err)
	}

	return d.list.Shutdown()
}

type delegate struct {
	meta []byte
}

func (d *delegate) NodeMeta(limit int) []byte {
	if len(d.meta) > limit {
		return nil
	}

	return d.meta
}

func (d *delegate) NotifyMsg([]byte) {}

func (d *delegate) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

func (d *delegate) LocalState(join bool) []byte {
	return nil
}

func (d *delegate) MergeRemoteState(buf []byte, join bool) {}
