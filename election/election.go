package election

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/maxpoletaev/overseer/internal/generic"
	"github.com/maxpoletaev/overseer/membership"
)

// Election implements the Bully algorithm. The node with the highest ID among
// the reachable ones becomes the coordinator. A node that starts an election
// contacts every active node with a higher ID. If none of them answers with
// an ok message within the decision window, the node announces itself.
type Election struct {
	selfID      membership.NodeID
	members     Members
	transport   Transport
	logger      kitlog.Logger
	window      time.Duration
	callTimeout time.Duration

	inElection  uint32
	receivedOk  uint32
	coordinator uint32

	// mut serializes the transitions that end a round.
	mut   sync.Mutex
	round uint64

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

func New(members Members, transport Transport, conf Config) *Election {
	e := &Election{
		selfID:      members.SelfID(),
		members:     members,
		transport:   transport,
		logger:      conf.Logger,
		window:      conf.DecisionWindow,
		callTimeout: conf.CallTimeout,
		stop:        make(chan struct{}),
	}

	// Until told otherwise, the node with the highest known ID is assumed to be
	// the coordinator.
	e.setCoordinator(members.MaxID())

	return e
}

// Coordinator returns the ID of the node believed to be the coordinator.
func (e *Election) Coordinator() membership.NodeID {
	return membership.NodeID(atomic.LoadUint32(&e.coordinator))
}

// IsCoordinator returns true if the local node believes it is the coordinator.
func (e *Election) IsCoordinator() bool {
	return e.Coordinator() == e.selfID
}

// InProgress returns true while the local node has an election in flight.
func (e *Election) InProgress() bool {
	return atomic.LoadUint32(&e.inElection) == 1
}

func (e *Election) setCoordinator(id membership.NodeID) {
	atomic.StoreUint32(&e.coordinator, uint32(id))
}

// Start starts a new election unless one is already in progress. Concurrent
// calls collapse into a single election.
func (e *Election) Start() {
	if !atomic.CompareAndSwapUint32(&e.inElection, 0, 1) {
		return
	}

	e.mut.Lock()
	e.round++
	round := e.round
	e.mut.Unlock()

	atomic.StoreUint32(&e.receivedOk, 0)

	level.Info(e.logger).Log("msg", "election started", "round", round)

	higher := generic.Filter(e.members.IDs(), func(id membership.NodeID) bool {
		return id > e.selfID && e.members.IsActive(id)
	})

	if len(higher) == 0 {
		e.announce(round)
		return
	}

	e.broadcast(higher, opElection, func(ctx context.Context, id membership.NodeID) error {
		return e.transport.SendElection(ctx, id, e.selfID)
	})

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		e.awaitDecision(round)
	}()
}

func (e *Election) awaitDecision(round uint64) {
	timer := time.NewTimer(e.window)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-e.stop:
		return
	}

	if atomic.LoadUint32(&e.receivedOk) == 0 {
		e.announce(round)
		return
	}

	e.mut.Lock()
	defer e.mut.Unlock()

	if e.round != round {
		return
	}

	e.round++
	atomic.StoreUint32(&e.inElection, 0)

	level.Info(e.logger).Log(
		"msg", "a node with higher id is alive, waiting for its announcement",
		"round", round,
	)
}

// announce makes the local node the coordinator and notifies every active
// peer, unless the round has already been ended by a received announcement.
func (e *Election) announce(round uint64) {
	e.mut.Lock()

	if e.round != round || !e.InProgress() {
		e.mut.Unlock()
		return
	}

	e.round++
	e.setCoordinator(e.selfID)
	atomic.StoreUint32(&e.receivedOk, 0)
	atomic.StoreUint32(&e.inElection, 0)
	e.mut.Unlock()

	level.Info(e.logger).Log("msg", "announcing self as the new coordinator", "round", round)

	targets := generic.Filter(e.members.IDs(), func(id membership.NodeID) bool {
		return id != e.selfID && e.members.IsActive(id)
	})

	e.broadcast(targets, opCoordinator, func(ctx context.Context, id membership.NodeID) error {
		return e.transport.SendCoordinator(ctx, id, e.selfID)
	})
}

// HandleElection processes an election message from another node. A node with
// a lower ID gets an ok answer, and the local node runs its own election.
func (e *Election) HandleElection(from membership.NodeID) {
	level.Info(e.logger).Log("msg", "election message received", "from", from)

	if from >= e.selfID {
		return
	}

	e.send(from, opOk, func(ctx context.Context) error {
		return e.transport.SendOk(ctx, from, e.selfID)
	})

	e.Start()
}

// HandleOk processes an ok answer. It prevents the local node from announcing
// itself when the decision window expires.
func (e *Election) HandleOk(from membership.NodeID) {
	level.Info(e.logger).Log("msg", "ok received", "from", from)
	atomic.StoreUint32(&e.receivedOk, 1)
}

// HandleCoordinator adopts the announced coordinator. An announcement always
// ends the local election, even if its decision window has not expired yet.
func (e *Election) HandleCoordinator(id membership.NodeID) {
	level.Info(e.logger).Log("msg", "new coordinator announced", "coordinator", id)

	e.mut.Lock()
	defer e.mut.Unlock()

	e.round++
	e.setCoordinator(id)
	atomic.StoreUint32(&e.inElection, 0)
}

// Close cancels pending decision windows and waits for them to exit.
func (e *Election) Close() {
	e.once.Do(func() {
		close(e.stop)
	})

	e.wg.Wait()
}

func (e *Election) broadcast(targets []membership.NodeID, op string, call func(ctx context.Context, id membership.NodeID) error) {
	wg := sync.WaitGroup{}

	for _, id := range targets {
		wg.Add(1)

		go func(id membership.NodeID) {
			defer wg.Done()

			e.send(id, op, func(ctx context.Context) error {
				return call(ctx, id)
			})
		}(id)
	}

	wg.Wait()
}

// send delivers a single message. A failed delivery marks the target as
// inactive; the message is not retried.
func (e *Election) send(target membership.NodeID, op string, call func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.callTimeout)
	defer cancel()

	err := call(ctx)
	if err == nil {
		return
	}

	changed, markErr := e.members.MarkInactive(target)
	if markErr != nil {
		level.Error(e.logger).Log("msg", "failed to update peer state", "peer_id", target, "err", markErr)
		return
	}

	if changed {
		level.Warn(e.logger).Log(
			"msg", "peer unreachable, marking as inactive",
			"peer_id", target,
			"op", op,
			"err", err,
		)
	}
}
