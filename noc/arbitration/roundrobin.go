package arbitration

// RoundRobinArbiter grants the first requester at or after a pointer that
// moves past every committed winner.
type RoundRobinArbiter struct {
	requestSet

	pointer int
}

// NewRoundRobinArbiter creates a round-robin arbiter with size inputs.
func NewRoundRobinArbiter(size int) *RoundRobinArbiter {
	return &RoundRobinArbiter{requestSet: newRequestSet(size)}
}

// AddRequest registers a request.
func (a *RoundRobinArbiter) AddRequest(input, priority int) {
	a.add(input, priority)
}

// Arbitrate returns the winner.
func (a *RoundRobinArbiter) Arbitrate() (int, bool) {
	if a.count == 0 {
		return 0, false
	}

	top := a.highestPriority()
	n := len(a.requested)

	for i := 0; i < n; i++ {
		input := (a.pointer + i) % n
		if a.requested[input] && a.priority[input] == top {
			return input, true
		}
	}

	panic("never")
}

// UpdateState moves the pointer right after the winner.
func (a *RoundRobinArbiter) UpdateState(winner int) {
	a.pointer = (winner + 1) % len(a.requested)
}

// Clear removes all requests.
func (a *RoundRobinArbiter) Clear() {
	a.clear()
}

// Size returns the number of inputs.
func (a *RoundRobinArbiter) Size() int {
	return len(a.requested)
}
