// Package router provides the base that every switching strategy builds on.
//
// A router owns the channel references of its input and output ports, the
// per-output fault flags and the timing parameters read from the
// configuration. Every external cycle the network calls Evaluate once. The
// base samples the inputs through the strategy and then runs as many internal
// steps as the internal speedup allows, carrying the fractional remainder to
// the next cycle. Concrete strategies implement the Strategy phases and keep
// their queues and allocators to themselves.
package router

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/sim"
)

// HookPosReadInputs marks the input sampling phase of a cycle.
var HookPosReadInputs = &sim.HookPos{Name: "Router Read Inputs"}

// HookPosInternalStep marks one internal step. The detail is the index of the
// step within the external cycle.
var HookPosInternalStep = &sim.HookPos{Name: "Router Internal Step"}

// A Strategy is a switching algorithm that runs on top of a Base.
type Strategy interface {
	// ReadInputs samples the flits and credits presented on the channels in
	// this external cycle. It runs exactly once per external cycle.
	ReadInputs()

	// InternalStep advances the internal pipeline by one internal cycle.
	InternalStep()

	// WriteOutputs drives the output channels and credit back-channels once
	// per external cycle.
	WriteOutputs()
}

// A Router is a switching element that the network can wire and evaluate.
type Router interface {
	channel.Endpoint
	sim.Hookable

	NumInputs() int
	NumOutputs() int
	RegisterInput(ch *channel.FlitChannel, credit *channel.CreditChannel)
	RegisterOutput(ch *channel.FlitChannel, credit *channel.CreditChannel)
	WiringMustBeComplete()

	Evaluate()
	WriteOutputs()

	SetOutputFault(index int, faulty bool)
	IsOutputFaulty(index int) bool
}

// Base holds the state that is common to all switching strategies.
type Base struct {
	sim.HookableBase

	name       string
	id         int
	numInputs  int
	numOutputs int

	crossbarDelay   int
	creditDelay     int
	inputSpeedup    int
	outputSpeedup   int
	internalSpeedup float64

	partialInternalCycles float64
	cycle                 uint64
	internalCycles        uint64

	inputs        []*channel.FlitChannel
	inputCredits  []*channel.CreditChannel
	outputs       []*channel.FlitChannel
	outputCredits []*channel.CreditChannel
	outputFaults  []bool

	strategy Strategy
}

// NewBase reads the timing parameters from cfg and creates a Base that
// dispatches its phases to strategy. A missing or invalid key is returned as
// an error so that the network can refuse to start.
func NewBase(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
	strategy Strategy,
) (*Base, error) {
	if strategy == nil {
		panic("router base requires a strategy")
	}

	fullName := name
	if parent != nil {
		fullName = sim.BuildName(parent.Name(), name)
	}

	sim.NameMustBeValid(fullName)

	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf(
			"router %s: needs at least one input and one output, got %d/%d",
			fullName, inputs, outputs)
	}

	b := &Base{
		name:       fullName,
		id:         id,
		numInputs:  inputs,
		numOutputs: outputs,
		strategy:   strategy,
	}

	err := b.bindConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("router %s: %w", fullName, err)
	}

	b.inputs = make([]*channel.FlitChannel, 0, inputs)
	b.inputCredits = make([]*channel.CreditChannel, 0, inputs)
	b.outputs = make([]*channel.FlitChannel, 0, outputs)
	b.outputCredits = make([]*channel.CreditChannel, 0, outputs)
	b.outputFaults = make([]bool, 0, outputs)

	return b, nil
}

func (b *Base) bindConfig(cfg config.Source) error {
	prepare, err := cfg.GetInt("st_prepare_delay")
	if err != nil {
		return err
	}

	final, err := cfg.GetInt("st_final_delay")
	if err != nil {
		return err
	}

	if prepare < 0 || final < 0 {
		return fmt.Errorf("%w: crossbar delays must not be negative",
			config.ErrInvalidValue)
	}

	b.crossbarDelay = prepare + final

	b.creditDelay, err = cfg.GetInt("credit_delay")
	if err != nil {
		return err
	}

	if b.creditDelay < 0 {
		return fmt.Errorf("%w: credit_delay must not be negative",
			config.ErrInvalidValue)
	}

	b.inputSpeedup, err = positiveInt(cfg, "input_speedup")
	if err != nil {
		return err
	}

	b.outputSpeedup, err = positiveInt(cfg, "output_speedup")
	if err != nil {
		return err
	}

	b.internalSpeedup, err = cfg.GetFloat("internal_speedup")
	if err != nil {
		return err
	}

	if !(b.internalSpeedup > 0) {
		return fmt.Errorf("%w: internal_speedup must be positive, got %g",
			config.ErrInvalidValue, b.internalSpeedup)
	}

	return nil
}

func positiveInt(cfg config.Source, key string) (int, error) {
	v, err := cfg.GetInt(key)
	if err != nil {
		return 0, err
	}

	if v < 1 {
		return 0, fmt.Errorf("%w: %s must be at least 1, got %d",
			config.ErrInvalidValue, key, v)
	}

	return v, nil
}

// Name returns the hierarchical name of the router.
func (b *Base) Name() string {
	return b.name
}

// ID returns the network-unique ID of the router.
func (b *Base) ID() int {
	return b.id
}

// NumInputs returns the configured number of input ports.
func (b *Base) NumInputs() int {
	return b.numInputs
}

// NumOutputs returns the configured number of output ports.
func (b *Base) NumOutputs() int {
	return b.numOutputs
}

// CrossbarDelay is st_prepare_delay + st_final_delay.
func (b *Base) CrossbarDelay() int {
	return b.crossbarDelay
}

// CreditDelay is the number of internal cycles a credit waits before it
// leaves the router.
func (b *Base) CreditDelay() int {
	return b.creditDelay
}

// InputSpeedup is the number of crossbar inputs per physical input port.
func (b *Base) InputSpeedup() int {
	return b.inputSpeedup
}

// OutputSpeedup is the number of crossbar outputs per physical output port.
func (b *Base) OutputSpeedup() int {
	return b.outputSpeedup
}

// InternalSpeedup is the ratio of the internal clock to the external clock.
func (b *Base) InternalSpeedup() float64 {
	return b.internalSpeedup
}

// Evaluate advances the router by one external cycle.
func (b *Base) Evaluate() {
	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosReadInputs,
			Detail: b.cycle,
		})
	}

	b.strategy.ReadInputs()

	b.partialInternalCycles += b.internalSpeedup

	step := 0
	for b.partialInternalCycles >= 1.0 {
		if b.NumHooks() > 0 {
			b.InvokeHook(sim.HookCtx{
				Domain: b,
				Pos:    HookPosInternalStep,
				Detail: step,
			})
		}

		b.strategy.InternalStep()
		b.partialInternalCycles -= 1.0
		b.internalCycles++
		step++
	}

	b.cycle++
}

// WriteOutputs lets the strategy drive the channels for this external cycle.
func (b *Base) WriteOutputs() {
	b.strategy.WriteOutputs()
}

// Cycle returns the number of external cycles evaluated so far.
func (b *Base) Cycle() uint64 {
	return b.cycle
}

// InternalCycles returns the number of internal steps taken so far.
func (b *Base) InternalCycles() uint64 {
	return b.internalCycles
}

// PartialInternalCycles returns the fractional internal cycle carried over
// to the next external cycle.
func (b *Base) PartialInternalCycles() float64 {
	return b.partialInternalCycles
}
