// Package chaos implements the chaotic router, a non-minimal adaptive router
// with whole-packet cut-through switching.
//
// Packets normally follow the candidates of the routing function. A packet
// that has been blocked at the head of an input virtual channel for
// deroute_threshold internal cycles, and that is fully buffered, moves into
// the shared multi-queue of multi_queue_size packets. Packets in the
// multi-queue have priority over input packets and, when no productive
// output is free, are derouted to any healthy, connected output. Once a
// packet wins an output, the output stays locked to it until the tail flit
// has crossed.
package chaos

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/arbitration"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/router/buffers"
	"github.com/sarchlab/nocsim/noc/routing"
	"github.com/sarchlab/nocsim/noc/topology"
	"github.com/sarchlab/nocsim/sim"
)

const (
	priorityDeroute = iota + 1
	priorityInput
	priorityMultiQueue
)

type packetState struct {
	active  bool
	outPort int
	outVC   int
	waited  int
}

type queuedPacket struct {
	packetState

	flits []*messaging.Flit
}

type outputLock struct {
	locked bool
	source int
}

type vcRange struct {
	start, end int
}

// Router is a chaotic router.
type Router struct {
	*router.Base

	vcs       buffers.VCConfig
	route     routing.Func
	localPort int

	derouteThreshold int
	multiQueue       []*queuedPacket

	inputs       *buffers.InputBuffers
	inState      [][]packetState
	tails        [][]int
	outLocks     []outputLock
	credits      *buffers.CreditCounter
	creditReturn *buffers.CreditReturn
	outQueues    *buffers.OutputQueues
	switchPipe   *buffers.SwitchPipeline

	alloc   *arbitration.SeparableAllocator
	ranges  map[[2]int]vcRange
	inUsed  []int
	outUsed []bool
}

// New creates a chaotic router.
func New(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (router.Router, error) {
	r := &Router{ranges: make(map[[2]int]vcRange)}

	base, err := router.NewBase(cfg, parent, name, id, inputs, outputs, r)
	if err != nil {
		return nil, err
	}

	r.Base = base

	err = r.readConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("router %s: %w", r.Name(), err)
	}

	arbKind, err := cfg.GetStr("arbiter")
	if err != nil {
		return nil, err
	}

	r.alloc, err = arbitration.NewSeparableAllocator(arbKind,
		r.numSources(), outputs, outputs)
	if err != nil {
		return nil, err
	}

	r.buildState()

	return r, nil
}

func (r *Router) readConfig(cfg config.Source) error {
	var err error

	r.vcs, err = buffers.ReadVCConfig(cfg)
	if err != nil {
		return err
	}

	r.route, err = routing.New(cfg)
	if err != nil {
		return err
	}

	topo, err := topology.FromConfig(cfg)
	if err != nil {
		return err
	}

	r.localPort = topo.LocalPort(r.ID())

	mqSize, err := cfg.GetInt("multi_queue_size")
	if err != nil {
		return err
	}

	r.derouteThreshold, err = cfg.GetInt("deroute_threshold")
	if err != nil {
		return err
	}

	if mqSize < 1 || r.derouteThreshold < 0 {
		return fmt.Errorf("%w: multi_queue_size must be positive and "+
			"deroute_threshold not negative, got %d and %d",
			config.ErrInvalidValue, mqSize, r.derouteThreshold)
	}

	r.multiQueue = make([]*queuedPacket, mqSize)

	return nil
}

func (r *Router) buildState() {
	r.inputs = buffers.NewInputBuffers(r, r.NumInputs(), r.vcs)
	r.credits = buffers.NewCreditCounter(r.NumOutputs(), r.vcs)
	r.creditReturn = buffers.NewCreditReturn(r.NumInputs())
	r.outQueues = buffers.NewOutputQueues(r, r.NumOutputs(), r.vcs)

	r.inState = make([][]packetState, r.NumInputs())
	r.tails = make([][]int, r.NumInputs())

	for i := range r.inState {
		r.inState[i] = make([]packetState, r.vcs.NumVCs)
		r.tails[i] = make([]int, r.vcs.NumVCs)
	}

	r.outLocks = make([]outputLock, r.NumOutputs())
	r.inUsed = make([]int, r.NumInputs())
	r.outUsed = make([]bool, r.NumOutputs())

	r.switchPipe = buffers.MakeSwitchPipelineBuilder().
		WithCrossbarDelay(r.CrossbarDelay()).
		WithCreditDelay(r.CreditDelay()).
		WithFlitWidth(r.NumOutputs()).
		WithCreditWidth(r.NumInputs() * r.vcs.NumVCs * r.vcs.BufSize).
		WithOutputQueues(r.outQueues).
		WithCreditReturn(r.creditReturn).
		Build(r)
}

// NumQueuedPackets returns the number of packets in the multi-queue.
func (r *Router) NumQueuedPackets() int {
	n := 0
	for _, p := range r.multiQueue {
		if p != nil {
			n++
		}
	}

	return n
}

// ReadInputs buffers arriving flits and collects returned credits.
func (r *Router) ReadInputs() {
	for _, a := range r.inputs.Receive(r.Base) {
		if a.Flit.Tail {
			r.tails[a.Input][a.VC]++
		}
	}

	r.credits.Receive(r.Base)
}

// InternalStep allocates free outputs, streams locked packets, moves long
// blocked packets into the multi-queue and ages the waiting ones.
func (r *Router) InternalStep() {
	r.switchPipe.Tick()

	r.allocate()
	r.stream()
	r.migrate()
	r.age()

	r.switchPipe.Drain()

	for i := range r.inUsed {
		r.inUsed[i] = 0
	}

	for o := range r.outUsed {
		r.outUsed[o] = false
	}
}

// WriteOutputs sends one flit per output and the pending credits.
func (r *Router) WriteOutputs() {
	r.outQueues.Send(r.Base)
	r.creditReturn.Send(r.Base)
}
