package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/maxpoletaev/overseer/internal/generic"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/node"
)

var opts struct {
	Size              int    `long:"size" description:"number of nodes" default:"5"`
	Host              string `long:"host" description:"host to bind all nodes to" default:"127.0.0.1"`
	BaseRPCPort       int    `long:"base-rpc-port" description:"rpc port of the first node" default:"3000"`
	BaseHeartbeatPort int    `long:"base-heartbeat-port" description:"heartbeat port of the first node" default:"1100"`
	Kill              uint32 `long:"kill" description:"id of the node to deactivate, the initial coordinator if zero"`
	KillAfter         int    `long:"kill-after" description:"delay before the node is deactivated (ms)" default:"25000"`
	Verbose           bool   `long:"verbose" description:"verbose mode"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	cluster := make([]membership.Peer, opts.Size)
	for i := range cluster {
		cluster[i] = membership.Peer{
			ID:            membership.NodeID(i + 1),
			RPCAddr:       fmt.Sprintf("%s:%d", opts.Host, opts.BaseRPCPort+i+1),
			HeartbeatAddr: fmt.Sprintf("%s:%d", opts.Host, opts.BaseHeartbeatPort+i),
		}
	}

	level.Info(logger).Log("msg", "starting cluster", "peers", membership.FormatPeers(cluster))

	nodes := make(map[membership.NodeID]*node.Node, len(cluster))

	for _, peer := range cluster {
		conf := node.DefaultConfig()
		conf.ID = peer.ID
		conf.Cluster = cluster
		conf.Logger = logger

		n, err := node.New(conf)
		if err != nil {
			level.Error(logger).Log("msg", "failed to create node", "node_id", peer.ID, "err", err)
			os.Exit(1)
		}

		if err := n.Start(); err != nil {
			level.Error(logger).Log("msg", "failed to start node", "node_id", peer.ID, "err", err)
			os.Exit(1)
		}

		nodes[peer.ID] = n
	}

	victim := membership.NodeID(opts.Kill)
	if victim == 0 {
		victim = membership.NodeID(opts.Size)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-time.After(time.Duration(opts.KillAfter) * time.Millisecond):
		if n, ok := nodes[victim]; ok {
			level.Warn(logger).Log("msg", "simulating node failure", "victim", victim)

			if err := n.Deactivate(); err != nil {
				level.Error(logger).Log("msg", "failed to deactivate node", "node_id", victim, "err", err)
			}
		}

		<-interrupt
	case <-interrupt:
	}

	level.Info(logger).Log("msg", "received interrupt signal, shutting down")

	for _, id := range generic.SortedKeys(nodes) {
		if id == victim {
			continue
		}

		if err := nodes[id].Deactivate(); err != nil {
			level.Error(logger).Log("msg", "failed to stop node", "node_id", id, "err", err)
		}
	}
}
