// Package network wires routers and terminals into a topology and advances
// them cycle by cycle.
//
// Every cycle runs in a fixed order: terminals sample their inputs and create
// packets, every router evaluates, every router drives its outputs,
// terminals drive theirs, and finally all channels advance. Since channels
// deliver values only after they advance, the evaluation order among routers
// does not matter.
package network

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/topology"
	"github.com/sarchlab/nocsim/noc/traffic"
	"github.com/sarchlab/nocsim/sim"
)

// Network holds the routers, terminals and channels of a simulated network.
type Network struct {
	name string
	topo topology.Topology

	routers   []router.Router
	terminals []*traffic.Terminal

	flitChannels   []*channel.FlitChannel
	creditChannels []*channel.CreditChannel

	cycle int
}

// Name returns the name of the network.
func (n *Network) Name() string {
	return n.name
}

// Topology returns the topology the network is built on.
func (n *Network) Topology() topology.Topology {
	return n.topo
}

// Cycle returns the number of cycles simulated so far.
func (n *Network) Cycle() int {
	return n.cycle
}

// NumNodes returns the number of routers, which equals the number of
// terminals.
func (n *Network) NumNodes() int {
	return len(n.routers)
}

// Router returns the router with the given ID.
func (n *Network) Router(id int) router.Router {
	return n.routers[id]
}

// Terminal returns the terminal attached to the router with the given ID.
func (n *Network) Terminal(id int) *traffic.Terminal {
	return n.terminals[id]
}

// Step simulates one cycle.
func (n *Network) Step() {
	for _, t := range n.terminals {
		t.Evaluate()
	}

	for _, r := range n.routers {
		r.Evaluate()
	}

	for _, r := range n.routers {
		r.WriteOutputs()
	}

	for _, t := range n.terminals {
		t.WriteOutputs()
	}

	for _, c := range n.flitChannels {
		c.Advance()
	}

	for _, c := range n.creditChannels {
		c.Advance()
	}

	n.cycle++
}

// Run simulates the given number of cycles.
func (n *Network) Run(cycles int) {
	for i := 0; i < cycles; i++ {
		n.Step()
	}
}

// StopInjection stops all terminals from creating new packets.
func (n *Network) StopInjection() {
	for _, t := range n.terminals {
		t.SetInjectionRate(0)
	}
}

// Drain stops injection and runs until every created packet is delivered or
// maxCycles have passed. It reports whether the network is empty.
func (n *Network) Drain(maxCycles int) bool {
	n.StopInjection()

	for i := 0; i < maxCycles; i++ {
		if n.isEmpty() {
			return true
		}

		n.Step()
	}

	return n.isEmpty()
}

func (n *Network) isEmpty() bool {
	created, ejected := 0, 0
	for _, t := range n.terminals {
		created += t.Stats().CreatedPackets
		ejected += t.Stats().EjectedPackets
	}

	return created == ejected
}

// InjectFault marks an output port of a router as faulty. Routing functions
// stop choosing the port for new packets.
func (n *Network) InjectFault(routerID, output int) error {
	return n.setFault(routerID, output, true)
}

// RepairFault clears the fault of an output port.
func (n *Network) RepairFault(routerID, output int) error {
	return n.setFault(routerID, output, false)
}

func (n *Network) setFault(routerID, output int, faulty bool) error {
	if routerID < 0 || routerID >= len(n.routers) {
		return fmt.Errorf("network %s has no router %d", n.name, routerID)
	}

	r := n.routers[routerID]
	if output < 0 || output >= r.NumOutputs() {
		return fmt.Errorf("router %s has no output %d", r.Name(), output)
	}

	r.SetOutputFault(output, faulty)

	return nil
}

// Stats merges the statistics of all terminals.
func (n *Network) Stats() *traffic.Stats {
	s := &traffic.Stats{}
	for _, t := range n.terminals {
		s.Merge(t.Stats())
	}

	return s
}

// AcceptChannelHook registers a hook on every flit channel, including the
// injection and ejection channels of the terminals.
func (n *Network) AcceptChannelHook(h sim.Hook) {
	for _, c := range n.flitChannels {
		c.AcceptHook(h)
	}
}

// NumFlitsInChannels returns the number of flits travelling on links.
func (n *Network) NumFlitsInChannels() int {
	count := 0
	for _, c := range n.flitChannels {
		count += c.InFlight()
	}

	return count
}
