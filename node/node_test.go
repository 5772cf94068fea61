package node

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/overseer/membership"
	nodeapigrpc "github.com/maxpoletaev/overseer/nodeapi/grpc"
	"github.com/maxpoletaev/overseer/resource"
)

type fakeReporter struct {
	mut     sync.Mutex
	reports []membership.NodeID
}

func (r *fakeReporter) Report(coordinator membership.NodeID, snapshots []resource.Snapshot) error {
	r.mut.Lock()
	defer r.mut.Unlock()

	r.reports = append(r.reports, coordinator)

	return nil
}

func (r *fakeReporter) Reports() []membership.NodeID {
	r.mut.Lock()
	defer r.mut.Unlock()

	return append([]membership.NodeID(nil), r.reports...)
}

func freeAddr(t *testing.T) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	return addr
}

var fakeSampler = resource.SamplerFunc(func(id membership.NodeID, clock uint64) resource.Snapshot {
	return resource.Snapshot{NodeID: id, Clock: clock, LoadAvg: -1, CollectedAt: time.Now()}
})

func testConfig(id membership.NodeID, cluster []membership.Peer, reporter *fakeReporter) Config {
	conf := DefaultConfig()
	conf.ID = id
	conf.Cluster = cluster
	conf.ProbeInterval = 50 * time.Millisecond
	conf.ProbeConnectTimeout = 100 * time.Millisecond
	conf.ProbeReadTimeout = 100 * time.Millisecond
	conf.DecisionWindow = 200 * time.Millisecond
	conf.CoordinatorInterval = 100 * time.Millisecond
	conf.CallTimeout = 300 * time.Millisecond
	conf.DialTimeout = 300 * time.Millisecond
	conf.Auth.Addr = "127.0.0.1:0"
	conf.Logger = kitlog.NewNopLogger()
	conf.Sampler = fakeSampler
	conf.Reporter = reporter

	return conf
}

// failoverDeadline is the time the remaining nodes have to agree on a new
// coordinator: the failure threshold worth of probe cycles, one decision
// window and one announcement.
func failoverDeadline(conf Config) time.Duration {
	cycle := conf.ProbeInterval + conf.ProbeConnectTimeout + conf.ProbeReadTimeout
	slack := 500 * time.Millisecond

	return time.Duration(conf.FailureThreshold)*cycle + conf.DecisionWindow + conf.CallTimeout + slack
}

func startCluster(t *testing.T, size int) ([]*Node, *fakeReporter) {
	cluster := make([]membership.Peer, size)
	for i := range cluster {
		cluster[i] = membership.Peer{
			ID:            membership.NodeID(i + 1),
			RPCAddr:       freeAddr(t),
			HeartbeatAddr: freeAddr(t),
		}
	}

	reporter := &fakeReporter{}
	nodes := make([]*Node, size)

	for i := range nodes {
		n, err := New(testConfig(membership.NodeID(i+1), cluster, reporter))
		require.NoError(t, err)
		require.NoError(t, n.Start())

		nodes[i] = n
	}

	t.Cleanup(func() {
		for _, n := range nodes {
			_ = n.Deactivate()
		}
	})

	return nodes, reporter
}

func snapshotIDs(snapshots []resource.Snapshot) []membership.NodeID {
	ids := make([]membership.NodeID, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.NodeID
	}

	return ids
}

func authenticate(t *testing.T, addr net.Addr) {
	url := fmt.Sprintf("http://%s/auth", addr)

	resp, err := http.Post(url, "application/json", strings.NewReader(`{"username":"admin","password":"admin"}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNode_CoordinatorFailover(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cluster test in short mode")
	}

	nodes, reporter := startCluster(t, 5)
	n4, n5 := nodes[3], nodes[4]

	for _, n := range nodes {
		assert.Equal(t, membership.NodeID(5), n.Coordinator())
	}

	require.Eventually(t, func() bool {
		return len(n5.LastRound()) == 5
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, []membership.NodeID{5, 1, 2, 3, 4}, snapshotIDs(n5.LastRound()))

	// Nobody has authenticated yet, so nothing is reported.
	assert.Empty(t, reporter.Reports())

	deadline := failoverDeadline(testConfig(1, nil, reporter))
	require.Less(t, deadline, 3*time.Second)

	require.NoError(t, n5.Deactivate())

	require.Eventually(t, func() bool {
		for _, n := range nodes[:4] {
			if n.Coordinator() != 4 || n.Members().IsActive(5) {
				return false
			}
		}

		return true
	}, deadline, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(n4.LastRound()) == 4
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, []membership.NodeID{4, 1, 2, 3}, snapshotIDs(n4.LastRound()))

	addr := n4.AuthAddr()
	require.NotNil(t, addr)
	authenticate(t, addr)

	require.Eventually(t, func() bool {
		reports := reporter.Reports()
		return len(reports) > 0 && reports[len(reports)-1] == 4
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNode_HandleStatusObservesClock(t *testing.T) {
	cluster := []membership.Peer{{ID: 1}, {ID: 2}}

	n, err := New(testConfig(1, cluster, &fakeReporter{}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		n.clock.Tick()
	}

	snap := n.HandleStatus(7)
	assert.Equal(t, uint64(8), snap.Clock)
	assert.Equal(t, membership.NodeID(1), snap.NodeID)

	snap = n.HandleStatus(3)
	assert.Equal(t, uint64(9), snap.Clock)
}

func TestNode_NotAMember(t *testing.T) {
	_, err := New(testConfig(3, []membership.Peer{{ID: 1}, {ID: 2}}, &fakeReporter{}))
	assert.ErrorIs(t, err, membership.ErrUnknownPeer)
}

func TestNode_Deactivate(t *testing.T) {
	nodes, _ := startCluster(t, 2)
	n1, n2 := nodes[0], nodes[1]

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	conn, err := nodeapigrpc.Dial(ctx, n2.RPCAddr().String())
	require.NoError(t, err)

	defer conn.Close()

	snap, err := conn.Status(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, membership.NodeID(2), snap.NodeID)
	assert.Greater(t, snap.Clock, uint64(10))

	require.NoError(t, n2.Deactivate())

	assert.False(t, n2.IsActive())
	assert.Nil(t, n2.LocalStatus())
	assert.ErrorIs(t, n2.Deactivate(), ErrNotStarted)

	_, err = conn.Status(ctx, 11)
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		return !n1.Members().IsActive(2) && n1.IsCoordinator()
	}, 5*time.Second, 20*time.Millisecond)

	assert.NotNil(t, n1.LocalStatus())
}
