// Package routertest drives a single router in isolation. It plays the
// upstream and downstream neighbors of every port: it injects flits while
// honoring the router's credits, records what leaves the router and returns
// credits for it.
package routertest

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router"
)

// Arrival is a flit that left the router, with the cycle it was delivered.
type Arrival struct {
	Flit  *messaging.Flit
	Cycle int
}

// Harness surrounds a router with channels to its ports.
type Harness struct {
	Router router.Router

	// ReturnCredits makes the downstream side free every received flit
	// immediately.
	ReturnCredits bool

	in, out             []*channel.FlitChannel
	inCredit, outCredit []*channel.CreditChannel

	pending       [][]*messaging.Flit
	upCredits     [][]int
	returnPending [][]int

	cycle int

	// Arrivals lists the flits delivered on each output.
	Arrivals [][]Arrival

	// CreditCycles lists the cycles at which credits arrived on each input.
	CreditCycles [][]int
}

// New wires every port of r to fresh channels with a delay of one cycle. The
// harness is the far endpoint of every channel.
// The upstream side starts with bufSize credits for each of numVCs virtual
// channels.
func New(r router.Router, numVCs, bufSize int) *Harness {
	h := &Harness{Router: r, ReturnCredits: true}

	for p := 0; p < r.NumInputs(); p++ {
		in := channel.NewFlitChannel(fmt.Sprintf("In[%d]", p), 1)
		credit := channel.NewCreditChannel(fmt.Sprintf("InCredit[%d]", p), 1)
		in.SetSource(h, p)
		r.RegisterInput(in, credit)

		h.in = append(h.in, in)
		h.inCredit = append(h.inCredit, credit)
		h.pending = append(h.pending, nil)
		h.CreditCycles = append(h.CreditCycles, nil)

		credits := make([]int, numVCs)
		for vc := range credits {
			credits[vc] = bufSize
		}

		h.upCredits = append(h.upCredits, credits)
	}

	for p := 0; p < r.NumOutputs(); p++ {
		out := channel.NewFlitChannel(fmt.Sprintf("Out[%d]", p), 1)
		credit := channel.NewCreditChannel(fmt.Sprintf("OutCredit[%d]", p), 1)
		out.SetSink(h, p)
		r.RegisterOutput(out, credit)

		h.out = append(h.out, out)
		h.outCredit = append(h.outCredit, credit)
		h.returnPending = append(h.returnPending, nil)
		h.Arrivals = append(h.Arrivals, nil)
	}

	r.WiringMustBeComplete()

	return h
}

// Inject queues flits for an input port. They are sent one per cycle in
// order, when the router has credit for their virtual channel.
func (h *Harness) Inject(port int, flits ...*messaging.Flit) {
	h.pending[port] = append(h.pending[port], flits...)
}

// ReturnCredit frees n slots of a virtual channel behind an output.
func (h *Harness) ReturnCredit(output, vc, n int) {
	for i := 0; i < n; i++ {
		h.returnPending[output] = append(h.returnPending[output], vc)
	}
}

// Name returns the name of the harness as a channel endpoint.
func (h *Harness) Name() string {
	return "Harness"
}

// ID returns -1, which no router uses.
func (h *Harness) ID() int {
	return -1
}

// Cycle returns the number of cycles run so far.
func (h *Harness) Cycle() int {
	return h.cycle
}

// Run advances n cycles.
func (h *Harness) Run(n int) {
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// Step advances one cycle.
func (h *Harness) Step() {
	h.sendFlits()
	h.sendCredits()

	h.Router.Evaluate()
	h.Router.WriteOutputs()

	for p := range h.in {
		h.in[p].Advance()
		h.inCredit[p].Advance()
	}

	for p := range h.out {
		h.out[p].Advance()
		h.outCredit[p].Advance()
	}

	h.collect()
	h.cycle++
}

func (h *Harness) sendFlits() {
	for p, queue := range h.pending {
		if len(queue) == 0 {
			continue
		}

		f := queue[0]
		if h.upCredits[p][f.VC] == 0 {
			continue
		}

		h.upCredits[p][f.VC]--
		h.in[p].Send(f)
		h.pending[p] = queue[1:]
	}
}

func (h *Harness) sendCredits() {
	for o, vcs := range h.returnPending {
		if len(vcs) == 0 {
			continue
		}

		h.outCredit[o].Send(messaging.NewCredit(vcs...))
		h.returnPending[o] = nil
	}
}

func (h *Harness) collect() {
	for o, ch := range h.out {
		f, ok := ch.Receive()
		if !ok {
			continue
		}

		h.Arrivals[o] = append(h.Arrivals[o], Arrival{Flit: f, Cycle: h.cycle})

		if h.ReturnCredits {
			h.ReturnCredit(o, f.VC, 1)
		}
	}

	for p, ch := range h.inCredit {
		credit, ok := ch.Receive()
		if !ok {
			continue
		}

		for _, vc := range credit.VCs {
			h.upCredits[p][vc]++
		}

		h.CreditCycles[p] = append(h.CreditCycles[p], h.cycle)
	}
}

// Delivered returns the flits delivered on an output, in order.
func (h *Harness) Delivered(output int) []*messaging.Flit {
	flits := make([]*messaging.Flit, 0, len(h.Arrivals[output]))
	for _, a := range h.Arrivals[output] {
		flits = append(flits, a.Flit)
	}

	return flits
}

// NumDelivered counts the flits delivered on all outputs.
func (h *Harness) NumDelivered() int {
	n := 0
	for _, a := range h.Arrivals {
		n += len(a)
	}

	return n
}
