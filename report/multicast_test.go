package report

import (
	"testing"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/overseer/membership"
	"github.com/maxpoletaev/overseer/resource"
)

func TestEmitterSubscriber(t *testing.T) {
	const group = "239.0.0.1:23456"

	sub, err := Subscribe(group, "")
	if err != nil {
		t.Skipf("multicast is not available: %v", err)
	}

	defer sub.Close()

	emitter := NewEmitter(group, "", kitlog.NewNopLogger())
	emitter.now = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	snapshots := []resource.Snapshot{{NodeID: 3, Clock: 7}, {NodeID: 1, Clock: 8}}

	// The same report twice, then a different one.
	require.NoError(t, emitter.Report(3, snapshots))
	require.NoError(t, emitter.Report(3, snapshots))
	require.NoError(t, emitter.Report(3, snapshots[:1]))

	first, err := sub.Next(2 * time.Second)
	if err != nil {
		t.Skipf("multicast loopback is not available: %v", err)
	}

	assert.Equal(t, membership.NodeID(3), first.Coordinator)
	assert.Contains(t, string(first.Body), "active nodes: 2")

	second, err := sub.Next(2 * time.Second)
	require.NoError(t, err)

	assert.NotEqual(t, first.Digest, second.Digest)
	assert.Contains(t, string(second.Body), "active nodes: 1")
}
