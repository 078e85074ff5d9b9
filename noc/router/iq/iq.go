// Package iq implements input-queued virtual channel routers.
//
// A flit waits in the virtual channel buffer of its input port. The head flit
// of a packet computes its route and acquires an output virtual channel, and
// then every flit of the packet competes for the crossbar in switch
// allocation. Granted flits traverse a crossbar pipeline of crossbar_delay
// internal cycles before entering the output queue, from which one flit per
// external cycle leaves on the output channel. Freed input slots are returned
// upstream as credits after credit_delay internal cycles.
//
// Three variants differ in how allocation is organized:
//
//   - iq allocates virtual channels and the switch in separate stages.
//   - iq_combined lets a head flit acquire its output virtual channel during
//     switch allocation.
//   - iq_split allocates the switch to body and tail flits first and gives
//     the remaining ports to head flits.
package iq

import (
	"github.com/sarchlab/nocsim/noc/arbitration"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/router/buffers"
	"github.com/sarchlab/nocsim/noc/routing"
	"github.com/sarchlab/nocsim/sim"
)

type mode int

const (
	modeSeparate mode = iota
	modeCombined
	modeSplit
)

type inputVC struct {
	active  bool
	outPort int
	outVC   int
}

// Router is an input-queued router.
type Router struct {
	*router.Base

	mode  mode
	vcs   buffers.VCConfig
	route routing.Func

	inputs       *buffers.InputBuffers
	vcState      [][]inputVC
	outVCBusy    [][]bool
	credits      *buffers.CreditCounter
	creditReturn *buffers.CreditReturn
	outQueues    *buffers.OutputQueues

	vcAlloc   *arbitration.SeparableAllocator
	swAlloc   *arbitration.SeparableAllocator
	headAlloc *arbitration.SeparableAllocator

	switchPipe *buffers.SwitchPipeline

	usedIn  []bool
	usedOut []bool
}

// New creates a router with separate virtual channel and switch allocation.
func New(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (router.Router, error) {
	return asRouter(build(modeSeparate, cfg, parent, name, id, inputs, outputs))
}

// NewCombined creates a router that allocates virtual channels during switch
// allocation.
func NewCombined(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (router.Router, error) {
	return asRouter(build(modeCombined, cfg, parent, name, id, inputs, outputs))
}

// NewSplit creates a router that allocates the switch to non-head flits
// before head flits.
func NewSplit(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (router.Router, error) {
	return asRouter(build(modeSplit, cfg, parent, name, id, inputs, outputs))
}

func asRouter(r *Router, err error) (router.Router, error) {
	if err != nil {
		return nil, err
	}

	return r, nil
}

func build(
	m mode,
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (*Router, error) {
	r := &Router{mode: m}

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

	arbKind, err := cfg.GetStr("arbiter")
	if err != nil {
		return nil, err
	}

	err = r.buildAllocators(arbKind)
	if err != nil {
		return nil, err
	}

	r.buildState()

	return r, nil
}

func (r *Router) buildAllocators(kind string) error {
	var err error

	v := r.vcs.NumVCs
	in := r.NumInputs() * r.InputSpeedup()
	out := r.NumOutputs() * r.OutputSpeedup()

	if r.mode != modeCombined {
		r.vcAlloc, err = arbitration.NewSeparableAllocator(kind,
			r.NumInputs()*v, r.NumOutputs()*v, r.NumOutputs()*v)
		if err != nil {
			return err
		}
	}

	r.swAlloc, err = arbitration.NewSeparableAllocator(kind, in, out, v)
	if err != nil {
		return err
	}

	if r.mode == modeSplit {
		r.headAlloc, err = arbitration.NewSeparableAllocator(kind, in, out, v)
		if err != nil {
			return err
		}
	}

	r.usedIn = make([]bool, in)
	r.usedOut = make([]bool, out)

	return nil
}

func (r *Router) buildState() {
	r.inputs = buffers.NewInputBuffers(r, r.NumInputs(), r.vcs)
	r.credits = buffers.NewCreditCounter(r.NumOutputs(), r.vcs)
	r.creditReturn = buffers.NewCreditReturn(r.NumInputs())
	r.outQueues = buffers.NewOutputQueues(r, r.NumOutputs(), r.vcs)

	r.vcState = make([][]inputVC, r.NumInputs())
	for i := range r.vcState {
		r.vcState[i] = make([]inputVC, r.vcs.NumVCs)
	}

	r.outVCBusy = make([][]bool, r.NumOutputs())
	for o := range r.outVCBusy {
		r.outVCBusy[o] = make([]bool, r.vcs.NumVCs)
	}

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

// ReadInputs buffers the arriving flits and collects the returned credits.
func (r *Router) ReadInputs() {
	r.inputs.Receive(r.Base)
	r.credits.Receive(r.Base)
}

// InternalStep advances the pipelines and runs one round of allocation.
func (r *Router) InternalStep() {
	r.switchPipe.Tick()

	switch r.mode {
	case modeSeparate:
		r.allocateVCs()
		r.allocateSwitch(r.swAlloc, anyFlit)
	case modeCombined:
		r.allocateSwitch(r.swAlloc, anyFlit)
	case modeSplit:
		r.allocateVCs()
		r.allocateSwitch(r.swAlloc, nonHeadFlit)
		r.allocateSwitch(r.headAlloc, headFlit)
	}

	r.switchPipe.Drain()
	r.clearUsedPorts()
}

// WriteOutputs sends one flit per output and the pending credits.
func (r *Router) WriteOutputs() {
	r.outQueues.Send(r.Base)
	r.creditReturn.Send(r.Base)
}

func (r *Router) clearUsedPorts() {
	for i := range r.usedIn {
		r.usedIn[i] = false
	}

	for o := range r.usedOut {
		r.usedOut[o] = false
	}
}
