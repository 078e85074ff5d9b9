package network

import "github.com/sarchlab/nocsim/sim"

// TickingNetwork lets an event-driven engine advance a network. Each tick
// simulates one cycle until the cycle limit is reached.
type TickingNetwork struct {
	*sim.TickingComponent

	network *Network
	cycles  int
}

// NewTickingNetwork creates a ticking component that runs n for the given
// number of cycles.
func NewTickingNetwork(
	n *Network,
	engine sim.Engine,
	freq sim.Freq,
	cycles int,
) *TickingNetwork {
	t := &TickingNetwork{network: n, cycles: cycles}
	t.TickingComponent = sim.NewTickingComponent(
		sim.BuildName(n.Name(), "Driver"), engine, freq, t)

	return t
}

// Start schedules the first tick.
func (t *TickingNetwork) Start() {
	t.TickNow()
}

// Tick simulates one cycle.
func (t *TickingNetwork) Tick() bool {
	if t.network.Cycle() >= t.cycles {
		return false
	}

	t.network.Step()

	return true
}
