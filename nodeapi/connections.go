package nodeapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maxpoletaev/overseer/internal/generic"
	"github.com/maxpoletaev/overseer/internal/multierror"
	"github.com/maxpoletaev/overseer/membership"
)

var ErrNoConnection = errors.New("no connection")

// AddressBook resolves node IDs to their endpoint addresses.
type AddressBook interface {
	Get(id membership.NodeID) (membership.Peer, error)
}

// ConnRegistry keeps one lazily established connection per cluster node.
type ConnRegistry struct {
	mut         sync.RWMutex
	connections map[membership.NodeID]Client
	inProgress  generic.SyncMap[membership.NodeID, chan struct{}]
	addrs       AddressBook
	dialer      Dialer
	dialTimeout time.Duration
}

func NewConnRegistry(addrs AddressBook, dialer Dialer, dialTimeout time.Duration) *ConnRegistry {
	return &ConnRegistry{
		connections: make(map[membership.NodeID]Client),
		addrs:       addrs,
		dialer:      dialer,
		dialTimeout: dialTimeout,
	}
}

func (r *ConnRegistry) get(id membership.NodeID) (Client, bool) {
	r.mut.RLock()

	conn, ok := r.connections[id]
	if !ok {
		r.mut.RUnlock()
		return nil, false
	}

	// The connection is present but was closed manually, so it is not usable.
	// Need to reacquire the lock and remove it from the registry.
	if conn.IsClosed() {
		r.mut.RUnlock()
		r.mut.Lock()

		// A new connection might have been created while we were waiting for the lock.
		if conn, ok := r.connections[id]; ok && !conn.IsClosed() {
			r.mut.Unlock()
			return conn, true
		}

		delete(r.connections, id)
		r.mut.Unlock()

		return nil, false
	}

	r.mut.RUnlock()

	return conn, true
}

func (r *ConnRegistry) connect(ctx context.Context, id membership.NodeID) (Client, error) {
	ctx, cancel := context.WithTimeout(ctx, r.dialTimeout)
	defer cancel()

	var retry bool

	for {
		c := make(chan struct{})

		// Store failed means another goroutine is already dialing the node.
		// Wait for it to finish or for the context to expire.
		done, loaded := r.inProgress.LoadOrStore(id, c)
		if loaded {
			close(c)

			select {
			case <-done:
				// noop
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			if conn, ok := r.get(id); ok {
				return conn, nil
			}

			// The other goroutine has failed to connect. Make one more attempt.
			if !retry {
				retry = true
				continue
			}

			return nil, fmt.Errorf("%w: dial failed in another goroutine", ErrNoConnection)
		}

		defer r.inProgress.Delete(id)
		defer close(done)

		// Someone might have finished dialing right before we took over.
		if conn, ok := r.get(id); ok {
			return conn, nil
		}

		peer, err := r.addrs.Get(id)
		if err != nil {
			return nil, err
		}

		conn, err := r.dialer(ctx, peer.RPCAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", peer.RPCAddr, err)
		}

		r.mut.Lock()
		defer r.mut.Unlock()

		// Check if the connection has been added while we were dialing. If so,
		// discard the one we just created and use the existing one.
		if old, ok := r.connections[id]; ok && !old.IsClosed() {
			_ = conn.Close()
			return old, nil
		}

		r.connections[id] = conn

		return conn, nil
	}
}

// Get returns a connection to the node with the given ID, dialing it if
// there is no open connection yet.
func (r *ConnRegistry) Get(ctx context.Context, id membership.NodeID) (Client, error) {
	if conn, ok := r.get(id); ok {
		return conn, nil
	}

	return r.connect(ctx, id)
}

// Drop closes and forgets the connection to the node, so that the next Get
// dials it again.
func (r *ConnRegistry) Drop(id membership.NodeID) {
	r.mut.Lock()
	defer r.mut.Unlock()

	if conn, ok := r.connections[id]; ok {
		_ = conn.Close()
		delete(r.connections, id)
	}
}

// Close closes all connections.
func (r *ConnRegistry) Close() error {
	r.mut.Lock()
	defer r.mut.Unlock()

	errs := multierror.New[membership.NodeID]()

	for id, conn := range r.connections {
		errs.Add(id, conn.Close())
		delete(r.connections, id)
	}

	return errs.Combined()
}
