package main

import (
	"context"
	"fmt"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/overseer/discovery"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/node"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

func setupLogger() (kitlog.Logger, shutdownFunc) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger, noopShutdown
}

// setupPeers returns the static member list, or discovers it through gossip
// when join addresses are given.
func setupPeers(logger kitlog.Logger) ([]membership.Peer, shutdownFunc) {
	joinAddrs := parseAddrs(opts.Discovery.Join)

	if len(joinAddrs) == 0 {
		peers, err := membership.ParsePeers(opts.Cluster.Peers)
		if err != nil {
			panic(fmt.Sprintf("invalid cluster peers: %v", err))
		}

		return peers, noopShutdown
	}

	self := membership.Peer{
		ID:            membership.NodeID(opts.Node.ID),
		RPCAddr:       opts.Discovery.RPCAddr,
		HeartbeatAddr: opts.Discovery.HBAddr,
	}

	conf := discovery.DefaultConfig()
	conf.BindAddr = opts.Discovery.BindAddr
	conf.BindPort = opts.Discovery.BindPort
	conf.Join = joinAddrs
	conf.Logger = logger

	disco, err := discovery.New(self, conf)
	if err != nil {
		panic(fmt.Sprintf("failed to start discovery: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), millis(opts.Discovery.Timeout))
	defer cancel()

	level.Info(logger).Log("msg", "waiting for peers", "size", opts.Discovery.Size)

	peers, err := disco.WaitForPeers(ctx, opts.Discovery.Size)
	if err != nil {
		panic(fmt.Sprintf("failed to discover peers: %v", err))
	}

	level.Info(logger).Log("msg", "peers discovered", "peers", membership.FormatPeers(peers))

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "leaving discovery cluster")

		if err := disco.Close(millis(opts.Cluster.CallTimeout)); err != nil {
			return fmt.Errorf("failed to leave discovery cluster: %w", err)
		}

		return nil
	}

	return peers, shutdown
}

func setupNode(peers []membership.Peer, logger kitlog.Logger) (*node.Node, shutdownFunc) {
	conf := node.DefaultConfig()
	conf.ID = membership.NodeID(opts.Node.ID)
	conf.Cluster = peers
	conf.FailureThreshold = opts.Cluster.FailureThreshold
	conf.CallTimeout = millis(opts.Cluster.CallTimeout)
	conf.DialTimeout = millis(opts.Cluster.CallTimeout)
	conf.ProbeInterval = millis(opts.Heartbeat.Interval)
	conf.ProbeConnectTimeout = millis(opts.Heartbeat.ConnectTimeout)
	conf.ProbeReadTimeout = millis(opts.Heartbeat.ReadTimeout)
	conf.DecisionWindow = millis(opts.Election.DecisionWindow)
	conf.CoordinatorInterval = millis(opts.Coordinator.Interval)
	conf.Auth.Addr = opts.Auth.BindAddr
	conf.Auth.Username = opts.Auth.Username
	conf.Auth.Password = opts.Auth.Password
	conf.Auth.TokenTTL = millis(opts.Auth.TokenTTL)
	conf.ReportGroup = opts.Report.Group
	conf.ReportInterface = opts.Report.Interface
	conf.Logger = logger

	n, err := node.New(conf)
	if err != nil {
		panic(fmt.Sprintf("failed to create node: %v", err))
	}

	if err := n.Start(); err != nil {
		panic(fmt.Sprintf("failed to start node: %v", err))
	}

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "stopping node")
		return n.Deactivate()
	}

	return n, shutdown
}
