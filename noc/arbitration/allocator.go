package arbitration

import (
	"log"
	"slices"
)

// A Grant matches an allocator input with an output. Label tells which of
// the input's requesters won.
type Grant struct {
	In, Out, Label int
}

type request struct {
	out      int
	priority int
	valid    bool
}

// SeparableAllocator is an input-first separable allocator. Each input owns
// up to labels requesters (for example its virtual channels), and every
// requester asks for one output. In the first stage each input picks one of
// its requesters, in the second stage each output picks one of the inputs
// that selected it. Each input and each output receives at most one grant per
// allocation.
type SeparableAllocator struct {
	inputs, outputs, labels int

	requests [][]request
	inArbs   []Arbiter
	outArbs  []Arbiter

	inChoice []int
}

// NewSeparableAllocator creates an allocator whose arbiters are of the given
// kind.
func NewSeparableAllocator(
	kind string,
	inputs, outputs, labels int,
) (*SeparableAllocator, error) {
	a := &SeparableAllocator{
		inputs:   inputs,
		outputs:  outputs,
		labels:   labels,
		requests: make([][]request, inputs),
		inArbs:   make([]Arbiter, inputs),
		outArbs:  make([]Arbiter, outputs),
		inChoice: make([]int, inputs),
	}

	var err error

	for i := 0; i < inputs; i++ {
		a.requests[i] = make([]request, labels)

		a.inArbs[i], err = New(kind, labels)
		if err != nil {
			return nil, err
		}
	}

	for o := 0; o < outputs; o++ {
		a.outArbs[o], err = New(kind, inputs)
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NumInputs returns the number of allocator inputs.
func (a *SeparableAllocator) NumInputs() int {
	return a.inputs
}

// NumOutputs returns the number of allocator outputs.
func (a *SeparableAllocator) NumOutputs() int {
	return a.outputs
}

// AddRequest registers that requester label of input in wants output out.
// A requester can only ask for one output per allocation; a repeated request
// keeps the higher priority one.
func (a *SeparableAllocator) AddRequest(in, label, out, priority int) {
	if in < 0 || in >= a.inputs || label < 0 || label >= a.labels {
		log.Panicf("allocator request (%d, %d) out of range (%d, %d)",
			in, label, a.inputs, a.labels)
	}

	if out < 0 || out >= a.outputs {
		log.Panicf("allocator output %d out of range, %d outputs",
			out, a.outputs)
	}

	r := &a.requests[in][label]
	if r.valid && r.priority >= priority {
		return
	}

	*r = request{out: out, priority: priority, valid: true}
}

// Allocate computes the grants of the current requests and commits the
// arbiter states of the winners. Grants are ordered by input.
func (a *SeparableAllocator) Allocate() []Grant {
	for in := 0; in < a.inputs; in++ {
		a.inChoice[in] = -1

		arb := a.inArbs[in]
		arb.Clear()

		for label, r := range a.requests[in] {
			if r.valid {
				arb.AddRequest(label, r.priority)
			}
		}

		label, ok := arb.Arbitrate()
		if !ok {
			continue
		}

		a.inChoice[in] = label
	}

	for o := 0; o < a.outputs; o++ {
		a.outArbs[o].Clear()
	}

	for in, label := range a.inChoice {
		if label < 0 {
			continue
		}

		r := a.requests[in][label]
		a.outArbs[r.out].AddRequest(in, r.priority)
	}

	var grants []Grant

	for o := 0; o < a.outputs; o++ {
		in, ok := a.outArbs[o].Arbitrate()
		if !ok {
			continue
		}

		a.outArbs[o].UpdateState(in)
		a.inArbs[in].UpdateState(a.inChoice[in])

		grants = append(grants, Grant{In: in, Out: o, Label: a.inChoice[in]})
	}

	slices.SortFunc(grants, func(x, y Grant) int { return x.In - y.In })

	return grants
}

// Clear removes all requests.
func (a *SeparableAllocator) Clear() {
	for in := range a.requests {
		for label := range a.requests[in] {
			a.requests[in][label] = request{}
		}
	}
}
