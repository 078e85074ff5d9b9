// Package arbitration provides the arbiters and allocators that routers use
// to resolve conflicts for buffers, virtual channels and crossbar ports.
package arbitration

import (
	"fmt"
	"log"

	"github.com/sarchlab/nocsim/noc/config"
)

// An Arbiter selects one winner among the requesters of one cycle.
// Requests with a higher priority always win over lower ones; the arbiter's
// own policy breaks ties.
type Arbiter interface {
	// AddRequest registers a request from input with the given priority.
	AddRequest(input, priority int)

	// Arbitrate returns the winner among the current requests without
	// changing the arbiter state. ok is false if there is no request.
	Arbitrate() (winner int, ok bool)

	// UpdateState commits a grant, so that the winner gets the lowest
	// priority in the next rounds.
	UpdateState(winner int)

	// Clear removes all requests.
	Clear()

	// Size returns the number of inputs.
	Size() int
}

// New creates an arbiter of the named kind, either "round_robin" or
// "matrix".
func New(kind string, size int) (Arbiter, error) {
	switch kind {
	case "round_robin":
		return NewRoundRobinArbiter(size), nil
	case "matrix":
		return NewMatrixArbiter(size), nil
	default:
		return nil, fmt.Errorf("%w: unknown arbiter type %s",
			config.ErrInvalidValue, kind)
	}
}

type requestSet struct {
	requested []bool
	priority  []int
	count     int
}

func newRequestSet(size int) requestSet {
	if size < 1 {
		log.Panicf("arbiter size must be at least 1, got %d", size)
	}

	return requestSet{
		requested: make([]bool, size),
		priority:  make([]int, size),
	}
}

func (s *requestSet) add(input, priority int) {
	if input < 0 || input >= len(s.requested) {
		log.Panicf("arbiter input %d out of range, size %d",
			input, len(s.requested))
	}

	if !s.requested[input] {
		s.count++
		s.requested[input] = true
		s.priority[input] = priority

		return
	}

	if priority > s.priority[input] {
		s.priority[input] = priority
	}
}

func (s *requestSet) clear() {
	for i := range s.requested {
		s.requested[i] = false
	}

	s.count = 0
}

func (s *requestSet) highestPriority() int {
	best := 0
	found := false

	for i, r := range s.requested {
		if r && (!found || s.priority[i] > best) {
			best = s.priority[i]
			found = true
		}
	}

	return best
}
