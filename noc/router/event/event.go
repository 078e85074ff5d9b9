// Package event implements an event-driven router. Instead of scanning every
// virtual channel in each internal cycle, the router keeps a queue of the
// input virtual channels that have work and only visits those. An input
// virtual channel that cannot progress is parked on the output it waits for
// and re-queued when that output frees a virtual channel, receives a credit
// or changes its fault state.
package event

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/router/buffers"
	"github.com/sarchlab/nocsim/noc/routing"
	"github.com/sarchlab/nocsim/sim"
)

type slot struct {
	input, vc int
}

type vcState struct {
	active  bool
	outPort int
	outVC   int

	queued bool
	parked bool
}

// Router is an event-driven virtual channel router.
type Router struct {
	*router.Base

	vcs   buffers.VCConfig
	route routing.Func

	eventsPerStep int
	events        []slot
	waiters       [][]slot

	inputs       *buffers.InputBuffers
	state        [][]vcState
	outVCBusy    [][]bool
	credits      *buffers.CreditCounter
	creditReturn *buffers.CreditReturn
	outQueues    *buffers.OutputQueues
	switchPipe   *buffers.SwitchPipeline

	inUsed  []int
	outUsed []int
}

// New creates an event-driven router. At most event_buf_size queued events
// are handled per internal cycle.
func New(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (router.Router, error) {
	r := &Router{}

	base, err := router.NewBase(cfg, parent, name, id, inputs, outputs, r)
	if err != nil {
		return nil, err
	}

	r.Base = base

	r.vcs, err = buffers.ReadVCConfig(cfg)
	if err != nil {
		return nil, err
	}

	r.route, err = routing.New(cfg)
	if err != nil {
		return nil, err
	}

	r.eventsPerStep, err = cfg.GetInt("event_buf_size")
	if err != nil {
		return nil, err
	}

	if r.eventsPerStep < 1 {
		return nil, fmt.Errorf("%w: event_buf_size must be positive, got %d",
			config.ErrInvalidValue, r.eventsPerStep)
	}

	r.buildState()

	return r, nil
}

func (r *Router) buildState() {
	r.inputs = buffers.NewInputBuffers(r, r.NumInputs(), r.vcs)
	r.credits = buffers.NewCreditCounter(r.NumOutputs(), r.vcs)
	r.creditReturn = buffers.NewCreditReturn(r.NumInputs())
	r.outQueues = buffers.NewOutputQueues(r, r.NumOutputs(), r.vcs)

	r.state = make([][]vcState, r.NumInputs())
	for i := range r.state {
		r.state[i] = make([]vcState, r.vcs.NumVCs)
	}

	r.outVCBusy = make([][]bool, r.NumOutputs())
	r.waiters = make([][]slot, r.NumOutputs())

	for o := range r.outVCBusy {
		r.outVCBusy[o] = make([]bool, r.vcs.NumVCs)
	}

	r.inUsed = make([]int, r.NumInputs())
	r.outUsed = make([]int, r.NumOutputs())

	width := r.NumInputs() * r.InputSpeedup()
	r.switchPipe = buffers.MakeSwitchPipelineBuilder().
		WithCrossbarDelay(r.CrossbarDelay()).
		WithCreditDelay(r.CreditDelay()).
		WithFlitWidth(width).
		WithCreditWidth(width).
		WithOutputQueues(r.outQueues).
		WithCreditReturn(r.creditReturn).
		Build(r)
}

// NumPendingEvents returns the number of queued events.
func (r *Router) NumPendingEvents() int {
	return len(r.events)
}

// SetOutputFault changes the fault state of an output and wakes the virtual
// channels waiting for it.
func (r *Router) SetOutputFault(index int, faulty bool) {
	r.Base.SetOutputFault(index, faulty)
	r.wake(index)
}

// ReadInputs buffers arriving flits and credits. Every arrival is an event.
func (r *Router) ReadInputs() {
	for _, a := range r.inputs.Receive(r.Base) {
		r.enqueue(slot{a.Input, a.VC})
	}

	for o := 0; o < r.NumOutputs(); o++ {
		ch := r.OutputCreditChannel(o)
		if ch == nil {
			continue
		}

		credit, ok := ch.Receive()
		if !ok {
			continue
		}

		r.credits.Restore(o, credit)
		r.wake(o)
	}
}

// InternalStep handles the events queued before this internal cycle.
func (r *Router) InternalStep() {
	r.switchPipe.Tick()

	n := len(r.events)
	if n > r.eventsPerStep {
		n = r.eventsPerStep
	}

	batch := make([]slot, n)
	copy(batch, r.events[:n])
	r.events = r.events[n:]

	for _, s := range batch {
		r.state[s.input][s.vc].queued = false
		r.handle(s)
	}

	r.switchPipe.Drain()

	for i := range r.inUsed {
		r.inUsed[i] = 0
	}

	for o := range r.outUsed {
		r.outUsed[o] = 0
	}
}

// WriteOutputs sends one flit per output and the pending credits.
func (r *Router) WriteOutputs() {
	r.outQueues.Send(r.Base)
	r.creditReturn.Send(r.Base)
}

func (r *Router) enqueue(s slot) {
	st := &r.state[s.input][s.vc]
	if st.queued || st.parked {
		return
	}

	st.queued = true
	r.events = append(r.events, s)
}

func (r *Router) park(s slot, output int) {
	st := &r.state[s.input][s.vc]
	st.parked = true
	r.waiters[output] = append(r.waiters[output], s)
}

func (r *Router) wake(output int) {
	waiting := r.waiters[output]
	r.waiters[output] = nil

	for _, s := range waiting {
		st := &r.state[s.input][s.vc]
		if !st.parked {
			continue
		}

		st.parked = false
		r.enqueue(s)
	}
}

func (r *Router) handle(s slot) {
	f := r.inputs.Front(s.input, s.vc)
	if f == nil {
		return
	}

	st := &r.state[s.input][s.vc]

	if !st.active && !r.acquireVC(s) {
		return
	}

	if r.credits.Available(st.outPort, st.outVC) == 0 {
		r.park(s, st.outPort)
		return
	}

	if r.inUsed[s.input] >= r.InputSpeedup() ||
		r.outUsed[st.outPort] >= r.OutputSpeedup() {
		r.enqueue(s)
		return
	}

	r.traverse(s)

	if r.inputs.Front(s.input, s.vc) != nil {
		r.enqueue(s)
	}
}

// acquireVC gives the head flit of a slot the first free output virtual
// channel among its healthy candidates. A head that finds none is parked on
// every candidate output.
func (r *Router) acquireVC(s slot) bool {
	f := r.inputs.Front(s.input, s.vc)
	if !f.Head {
		panic("a packet must start with a head flit")
	}

	candidates := r.route(r.Base, f, s.input)

	for _, c := range candidates {
		if r.IsOutputFaulty(c.Port) {
			continue
		}

		for ovc := c.VCStart; ovc <= c.VCEnd; ovc++ {
			if r.outVCBusy[c.Port][ovc] {
				continue
			}

			r.outVCBusy[c.Port][ovc] = true

			st := &r.state[s.input][s.vc]
			st.active = true
			st.outPort = c.Port
			st.outVC = ovc

			return true
		}
	}

	for _, c := range candidates {
		r.park(s, c.Port)
	}

	return false
}

func (r *Router) traverse(s slot) {
	st := &r.state[s.input][s.vc]
	f := r.inputs.Pop(s.input, s.vc)

	r.credits.Consume(st.outPort, st.outVC)
	f.VC = st.outVC

	r.switchPipe.SendFlit(f, st.outPort)
	r.switchPipe.FreeSlot(f.ID, s.input, s.vc)

	r.inUsed[s.input]++
	r.outUsed[st.outPort]++

	if f.Tail {
		port := st.outPort
		r.outVCBusy[port][st.outVC] = false

		st.active = false
		st.outPort = 0
		st.outVC = 0

		r.wake(port)
	}
}
