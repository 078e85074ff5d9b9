package buffers

import (
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/pipelining"
	"github.com/sarchlab/nocsim/sim"
)

type crossbarItem struct {
	flit   *messaging.Flit
	output int
}

func (i crossbarItem) TaskID() string {
	return i.flit.ID
}

type creditItem struct {
	id    string
	input int
	vc    int
}

func (i creditItem) TaskID() string {
	return i.id
}

// SwitchPipeline models the crossbar traversal of flits and the return
// delay of the credits they free. Both are pipelines ticked once per
// internal cycle.
type SwitchPipeline struct {
	crossbar    pipelining.Pipeline
	crossbarOut sim.Buffer
	credit      pipelining.Pipeline
	creditOut   sim.Buffer

	outQueues    *OutputQueues
	creditReturn *CreditReturn
}

// SwitchPipelineBuilder builds SwitchPipelines.
type SwitchPipelineBuilder struct {
	crossbarDelay int
	creditDelay   int
	flitWidth     int
	creditWidth   int
	outQueues     *OutputQueues
	creditReturn  *CreditReturn
}

// MakeSwitchPipelineBuilder creates a builder for single-lane pipelines
// without delay.
func MakeSwitchPipelineBuilder() SwitchPipelineBuilder {
	return SwitchPipelineBuilder{flitWidth: 1, creditWidth: 1}
}

// WithCrossbarDelay sets the internal cycles a flit spends in the crossbar.
func (b SwitchPipelineBuilder) WithCrossbarDelay(n int) SwitchPipelineBuilder {
	b.crossbarDelay = n
	return b
}

// WithCreditDelay sets the internal cycles before a freed slot is returned.
func (b SwitchPipelineBuilder) WithCreditDelay(n int) SwitchPipelineBuilder {
	b.creditDelay = n
	return b
}

// WithFlitWidth sets how many flits can enter the crossbar per internal
// cycle.
func (b SwitchPipelineBuilder) WithFlitWidth(n int) SwitchPipelineBuilder {
	b.flitWidth = n
	return b
}

// WithCreditWidth sets how many slots can be freed per internal cycle.
func (b SwitchPipelineBuilder) WithCreditWidth(n int) SwitchPipelineBuilder {
	b.creditWidth = n
	return b
}

// WithOutputQueues sets where flits go after the crossbar.
func (b SwitchPipelineBuilder) WithOutputQueues(
	q *OutputQueues,
) SwitchPipelineBuilder {
	b.outQueues = q
	return b
}

// WithCreditReturn sets where freed slots go after the credit delay.
func (b SwitchPipelineBuilder) WithCreditReturn(
	c *CreditReturn,
) SwitchPipelineBuilder {
	b.creditReturn = c
	return b
}

// Build creates the pipelines under the owner's name.
func (b SwitchPipelineBuilder) Build(owner sim.Named) *SwitchPipeline {
	if b.outQueues == nil || b.creditReturn == nil {
		panic("switch pipeline needs output queues and a credit return")
	}

	s := &SwitchPipeline{
		outQueues:    b.outQueues,
		creditReturn: b.creditReturn,
	}

	s.crossbarOut = sim.NewBuffer(
		sim.BuildName(owner.Name(), "CrossbarOut"), b.flitWidth)
	s.crossbar = pipelining.MakeBuilder().
		WithNumStage(b.crossbarDelay).
		WithCyclePerStage(1).
		WithPipelineWidth(b.flitWidth).
		WithPostPipelineBuffer(s.crossbarOut).
		Build(sim.BuildName(owner.Name(), "Crossbar"))

	s.creditOut = sim.NewBuffer(
		sim.BuildName(owner.Name(), "CreditOut"), b.creditWidth)
	s.credit = pipelining.MakeBuilder().
		WithNumStage(b.creditDelay).
		WithCyclePerStage(1).
		WithPipelineWidth(b.creditWidth).
		WithPostPipelineBuffer(s.creditOut).
		Build(sim.BuildName(owner.Name(), "CreditPipeline"))

	return s
}

// Tick advances both pipelines by one internal cycle and moves what left
// them into the output queues and the pending credits.
func (s *SwitchPipeline) Tick() {
	s.crossbar.Tick()
	s.credit.Tick()
	s.Drain()
}

// Drain moves finished items out of the pipelines. With zero delay, items
// accepted in this internal cycle finish immediately.
func (s *SwitchPipeline) Drain() {
	for s.crossbarOut.Size() > 0 {
		item := s.crossbarOut.Pop().(crossbarItem)
		s.outQueues.Push(item.output, item.flit)
	}

	for s.creditOut.Size() > 0 {
		item := s.creditOut.Pop().(creditItem)
		s.creditReturn.Add(item.input, item.vc)
	}
}

// SendFlit starts the crossbar traversal of a flit toward an output.
func (s *SwitchPipeline) SendFlit(f *messaging.Flit, output int) {
	s.crossbar.Accept(crossbarItem{flit: f, output: output})
}

// FreeSlot starts the return of one slot of an input virtual channel.
func (s *SwitchPipeline) FreeSlot(id string, input, vc int) {
	s.credit.Accept(creditItem{id: id, input: input, vc: vc})
}

// NumCrossing returns the number of flits inside the crossbar.
func (s *SwitchPipeline) NumCrossing() int {
	return s.crossbar.NumItems()
}
