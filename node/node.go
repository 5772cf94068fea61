package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"

	"github.com/maxpoletaev/overseer/auth"
	"github.com/maxpoletaev/overseer/coordinator"
	"github.com/maxpoletaev/overseer/election"
	"github.com/maxpoletaev/overseer/heartbeat"
	"github.com/maxpoletaev/overseer/internal/lamport"
	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/nodeapi"
	"github.com/maxpoletaev/overseer/nodeapi/proto"
	"github.com/maxpoletaev/overseer/nodeapi/service"
	"github.com/maxpoletaev/overseer/report"
	"github.com/maxpoletaev/overseer/resource"
)

var (
	_ service.Handler  = (*Node)(nil)
	_ coordinator.Node = (*Node)(nil)
	_ auth.Rounds      = (*Node)(nil)
	_ coordinator.Gate = (*auth.Service)(nil)
)

var ErrNotStarted = errors.New("node is not started")

// Node is a single member of the monitored cluster. It answers liveness
// probes and remote calls, watches the other members, takes part in
// elections and, while it is the coordinator, collects the cluster state.
type Node struct {
	id       membership.NodeID
	self     membership.Peer
	logger   kitlog.Logger
	clock    *lamport.Clock
	members  *membership.Registry
	conns    *nodeapi.ConnRegistry
	election *election.Election
	sampler  resource.Sampler

	responder *heartbeat.Responder
	prober    *heartbeat.Prober
	loop      *coordinator.Loop
	auth      *auth.Service

	grpcServer *grpc.Server
	rpcAddr    net.Addr

	active  uint32
	mut     sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(conf Config) (*Node, error) {
	members := membership.NewRegistry(conf.ID, conf.Cluster, conf.FailureThreshold)

	self, err := members.Get(conf.ID)
	if err != nil {
		return nil, fmt.Errorf("node %d is not a member of the cluster: %w", conf.ID, err)
	}

	logger := kitlog.With(conf.Logger, "node_id", conf.ID)

	sampler := conf.Sampler
	if sampler == nil {
		sampler = resource.NewSystemSampler(logger)
	}

	reporter := conf.Reporter
	if reporter == nil {
		reporter = report.NewEmitter(conf.ReportGroup, conf.ReportInterface, logger)
	}

	n := &Node{
		id:      conf.ID,
		self:    self,
		logger:  logger,
		clock:   &lamport.Clock{},
		members: members,
		sampler: sampler,
	}

	n.conns = nodeapi.NewConnRegistry(members, conf.Dialer, conf.DialTimeout)
	msgr := &messenger{conns: n.conns}

	electionConf := election.DefaultConfig()
	electionConf.DecisionWindow = conf.DecisionWindow
	electionConf.CallTimeout = conf.CallTimeout
	electionConf.Logger = logger
	n.election = election.New(members, msgr, electionConf)

	n.responder = heartbeat.NewResponder(self.HeartbeatAddr, conf.ProbeReadTimeout, logger)
	n.prober = heartbeat.NewProber(members, n.election, logger,
		heartbeat.WithProbeInterval(conf.ProbeInterval),
		heartbeat.WithProbeTimeouts(conf.ProbeConnectTimeout, conf.ProbeReadTimeout),
	)

	authConf := conf.Auth
	authConf.Logger = logger

	coordinatorConf := coordinator.DefaultConfig()
	coordinatorConf.Interval = conf.CoordinatorInterval
	coordinatorConf.CallTimeout = conf.CallTimeout
	coordinatorConf.Logger = logger
	coordinatorConf.Reporter = reporter

	n.auth = auth.NewService(members, n, authConf)
	coordinatorConf.Gate = n.auth
	n.loop = coordinator.New(n, members, n.clock, msgr, coordinatorConf)

	return n, nil
}

// Start binds the node's listeners and starts its background loops.
func (n *Node) Start() error {
	n.mut.Lock()
	defer n.mut.Unlock()

	if n.started {
		return nil
	}

	listener, err := net.Listen("tcp", n.self.RPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.self.RPCAddr, err)
	}

	atomic.StoreUint32(&n.active, 1)

	n.grpcServer = grpc.NewServer()
	proto.RegisterNodeServer(n.grpcServer, service.New(n, n.logger))
	n.rpcAddr = listener.Addr()

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()

		if err := n.grpcServer.Serve(listener); err != nil {
			level.Error(n.logger).Log("msg", "grpc server failed", "err", err)
		}
	}()

	if err := n.responder.Start(); err != nil {
		n.grpcServer.Stop()
		atomic.StoreUint32(&n.active, 0)

		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.started = true

	n.wg.Add(2)

	go func() {
		defer n.wg.Done()
		n.prober.RunLoop(ctx)
	}()

	go func() {
		defer n.wg.Done()
		n.loop.RunLoop(ctx)
	}()

	level.Info(n.logger).Log(
		"msg", "node started",
		"rpc_addr", listener.Addr(),
		"heartbeat_addr", n.responder.Addr(),
		"coordinator", n.election.Coordinator(),
	)

	return nil
}

// Deactivate simulates a node failure. All listeners are closed immediately,
// the loops are stopped and calls that are still in flight are answered with
// an error.
func (n *Node) Deactivate() error {
	n.mut.Lock()

	if !n.started || n.stopped {
		n.mut.Unlock()
		return ErrNotStarted
	}

	n.stopped = true
	atomic.StoreUint32(&n.active, 0)
	n.mut.Unlock()

	level.Warn(n.logger).Log("msg", "deactivating node")

	n.cancel()
	n.responder.Stop()
	n.auth.Stop()
	n.grpcServer.Stop()
	n.election.Close()
	n.wg.Wait()

	level.Info(n.logger).Log("msg", "node deactivated")

	if err := n.conns.Close(); err != nil {
		return fmt.Errorf("failed to close connections: %w", err)
	}

	return nil
}

// goAsync runs f in the background unless the node is being stopped.
func (n *Node) goAsync(f func()) {
	n.mut.Lock()
	defer n.mut.Unlock()

	if n.stopped {
		return
	}

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()
		f()
	}()
}

func (n *Node) ID() membership.NodeID {
	return n.id
}

func (n *Node) IsActive() bool {
	return atomic.LoadUint32(&n.active) == 1
}

func (n *Node) Coordinator() membership.NodeID {
	return n.election.Coordinator()
}

func (n *Node) IsCoordinator() bool {
	return n.election.IsCoordinator()
}

func (n *Node) Members() *membership.Registry {
	return n.members
}

// RPCAddr returns the address the gRPC server is bound to.
func (n *Node) RPCAddr() net.Addr {
	n.mut.Lock()
	defer n.mut.Unlock()

	return n.rpcAddr
}

// AuthAddr returns the address of the auth service, or nil if it is not
// running on this node.
func (n *Node) AuthAddr() net.Addr {
	return n.auth.Addr()
}

// LastRound returns the snapshots of the last collection round run by this
// node as the coordinator.
func (n *Node) LastRound() []resource.Snapshot {
	return n.loop.LastRound()
}

// LocalStatus is the local status read: it advances the clock and returns a
// snapshot stamped with the new value, or nil if the node is not active.
func (n *Node) LocalStatus() *resource.Snapshot {
	if !n.IsActive() {
		return nil
	}

	snap := n.sampler.Sample(n.id, n.clock.Tick())

	return &snap
}

// HandleStatus advances the clock past the caller's value and returns a fresh
// snapshot stamped with the result.
func (n *Node) HandleStatus(clock uint64) resource.Snapshot {
	return n.sampler.Sample(n.id, n.clock.Observe(clock))
}

// HandleElection runs in the background, since answering the election may
// take longer than the caller is willing to wait.
func (n *Node) HandleElection(from membership.NodeID) {
	n.goAsync(func() {
		n.election.HandleElection(from)
	})
}

func (n *Node) HandleOk(from membership.NodeID) {
	n.election.HandleOk(from)
}

func (n *Node) HandleCoordinator(id membership.NodeID) {
	n.election.HandleCoordinator(id)
}
