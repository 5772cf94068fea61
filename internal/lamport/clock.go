package lamport

import (
	"fmt"
	"sync/atomic"
)

// Clock is a Lamport logical clock. The zero value is ready to use and all
// methods are safe for concurrent use.
type Clock struct {
	value uint64
}

// Tick advances the clock for a local event and returns the new value.
func (c *Clock) Tick() uint64 {
	return atomic.AddUint64(&c.value, 1)
}

// Observe merges a timestamp received from a remote node into the clock. The
// resulting value is always strictly greater than both the previous local value
// and the remote one.
func (c *Clock) Observe(remote uint64) uint64 {
	for {
		local := atomic.LoadUint64(&c.value)

		next := local
		if remote > next {
			next = remote
		}

		next++

		if atomic.CompareAndSwapUint64(&c.value, local, next) {
			return next
		}
	}
}

// Load returns the current value without advancing the clock.
func (c *Clock) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

func (c *Clock) String() string {
	return fmt.Sprintf("%d", c.Load())
}
