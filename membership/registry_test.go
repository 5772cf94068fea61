package membership

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(1, []Peer{
		{ID: 3, RPCAddr: "127.0.0.1:4003", HeartbeatAddr: "127.0.0.1:1102"},
		{ID: 1, RPCAddr: "127.0.0.1:4001", HeartbeatAddr: "127.0.0.1:1100"},
		{ID: 2, RPCAddr: "127.0.0.1:4002", HeartbeatAddr: "127.0.0.1:1101"},
	}, 3)
}

func TestRegistry_Order(t *testing.T) {
	r := newTestRegistry()

	assert.Equal(t, []NodeID{1, 2, 3}, r.IDs())
	assert.Equal(t, NodeID(3), r.MaxID())

	peers := r.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, NodeID(2), peers[0].ID)
	assert.Equal(t, NodeID(3), peers[1].ID)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Get(42)
	require.ErrorIs(t, err, ErrUnknownPeer)

	_, err = r.MarkSuccess(42)
	require.ErrorIs(t, err, ErrUnknownPeer)

	_, err = r.MarkFailure(42)
	require.ErrorIs(t, err, ErrUnknownPeer)

	_, err = r.MarkInactive(42)
	require.ErrorIs(t, err, ErrUnknownPeer)
}

func TestRegistry_MarkFailureThreshold(t *testing.T) {
	r := newTestRegistry()

	res, err := r.MarkFailure(2)
	require.NoError(t, err)
	assert.Equal(t, FailureResult{Failures: 1}, res)

	res, err = r.MarkFailure(2)
	require.NoError(t, err)
	assert.Equal(t, FailureResult{Failures: 2}, res)
	assert.True(t, r.IsActive(2))

	res, err = r.MarkFailure(2)
	require.NoError(t, err)
	assert.Equal(t, FailureResult{Failures: 3, BecameInactive: true}, res)
	assert.False(t, r.IsActive(2))

	// Already inactive, the signal is not repeated.
	res, err = r.MarkFailure(2)
	require.NoError(t, err)
	assert.Equal(t, FailureResult{Failures: 4}, res)
}

func TestRegistry_SuccessResetsCounter(t *testing.T) {
	r := newTestRegistry()

	for i := 0; i < 2; i++ {
		_, err := r.MarkFailure(3)
		require.NoError(t, err)
	}

	reconnected, err := r.MarkSuccess(3)
	require.NoError(t, err)
	assert.False(t, reconnected)

	peer, err := r.Get(3)
	require.NoError(t, err)
	assert.Equal(t, 0, peer.Failures)
	assert.True(t, peer.IsActive())

	// Two more failures are not enough after the reset.
	for i := 0; i < 2; i++ {
		res, err := r.MarkFailure(3)
		require.NoError(t, err)
		assert.False(t, res.BecameInactive)
	}

	assert.True(t, r.IsActive(3))
}

func TestRegistry_Reconnect(t *testing.T) {
	r := newTestRegistry()

	changed, err := r.MarkInactive(2)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.MarkInactive(2)
	require.NoError(t, err)
	assert.False(t, changed)

	reconnected, err := r.MarkSuccess(2)
	require.NoError(t, err)
	assert.True(t, reconnected)
	assert.True(t, r.IsActive(2))
}

func TestRegistry_SelfAlwaysActive(t *testing.T) {
	r := newTestRegistry()

	assert.True(t, r.IsActive(1))
	assert.False(t, r.IsActive(99))
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	r := NewRegistry(1, []Peer{{ID: 1}, {ID: 2}}, 1000)
	wg := sync.WaitGroup{}

	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_, _ = r.MarkFailure(2)
		}()
	}

	wg.Wait()

	peer, err := r.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 100, peer.Failures)
}
