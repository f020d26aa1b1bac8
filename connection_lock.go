package zbuf

import (
	"runtime"
	"sync/atomic"
)

// closer records which side ended a connection.
type closer int32

const (
	none closer = iota
	user
	peer
)

// side indexes the guarded state of a connection.
type side int32

const (
	closing side = iota
	reading
	writing
	// sides must be at the bottom.
	sides
)

// states of the reading and writing sides
const (
	free int32 = iota
	held
	parked
)

/*
	reading ──┐
	          ├──> closing: parks both sides once their holders let go,
	writing ──┘    after which every acquire fails with ErrConnClosed.
*/

// guard gives each buffer of a connection a single user at a time.
type guard struct {
	state [sides]int32
}

func (g *guard) markClosed(by closer) bool {
	return atomic.CompareAndSwapInt32(&g.state[closing], int32(none), int32(by))
}

func (g *guard) closedBy(by closer) bool {
	return atomic.LoadInt32(&g.state[closing]) == int32(by)
}

func (g *guard) acquire(s side) error {
	if !g.closedBy(none) {
		return ErrConnClosed
	}
	if atomic.CompareAndSwapInt32(&g.state[s], free, held) {
		return nil
	}
	if atomic.LoadInt32(&g.state[s]) == parked {
		return ErrConnClosed
	}
	return ErrConcurrentUse
}

func (g *guard) release(s side) {
	atomic.CompareAndSwapInt32(&g.state[s], held, free)
}

// park waits out the current holder of s and keeps s unavailable for good.
func (g *guard) park(s side) {
	for !atomic.CompareAndSwapInt32(&g.state[s], free, parked) && atomic.LoadInt32(&g.state[s]) != parked {
		runtime.Gosched()
	}
}

func (g *guard) idle(s side) bool {
	return atomic.LoadInt32(&g.state[s]) == free
}
