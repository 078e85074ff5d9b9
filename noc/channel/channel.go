// Package channel provides timed, point-to-point channels that connect
// routers and terminals. A channel carries at most one value per cycle in
// one direction and delivers it after a fixed propagation delay.
package channel

import (
	"log"

	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/sim"
)

// HookPosChannelSend marks when the source puts a value on the channel.
var HookPosChannelSend = &sim.HookPos{Name: "Channel Send"}

// HookPosChannelDeliver marks when a value becomes visible to the sink.
var HookPosChannelDeliver = &sim.HookPos{Name: "Channel Deliver"}

// An Endpoint is a router or terminal attached to one end of a channel.
type Endpoint interface {
	sim.Named
	ID() int
}

type inFlight[T any] struct {
	value T
	ready int
}

// Channel is a delay line between a source endpoint and a sink endpoint. The
// network owns channels; endpoints only hold references to them.
type Channel[T any] struct {
	sim.HookableBase

	name  string
	delay int
	cycle int

	input     T
	hasInput  bool
	output    T
	hasOutput bool
	pipe      []inFlight[T]

	source, sink         Endpoint
	sourcePort, sinkPort int
}

// FlitChannel carries flits in the forward direction.
type FlitChannel = Channel[*messaging.Flit]

// CreditChannel carries credits in the reverse direction.
type CreditChannel = Channel[*messaging.Credit]

// New creates a channel with the given propagation delay in cycles.
func New[T any](name string, delay int) *Channel[T] {
	sim.NameMustBeValid(name)

	if delay < 1 {
		log.Panicf("channel %s: delay must be at least 1 cycle, got %d",
			name, delay)
	}

	return &Channel[T]{
		name:       name,
		delay:      delay,
		sourcePort: -1,
		sinkPort:   -1,
	}
}

// NewFlitChannel creates a channel for flits.
func NewFlitChannel(name string, delay int) *FlitChannel {
	return New[*messaging.Flit](name, delay)
}

// NewCreditChannel creates a channel for credits.
func NewCreditChannel(name string, delay int) *CreditChannel {
	return New[*messaging.Credit](name, delay)
}

// Name returns the name of the channel.
func (c *Channel[T]) Name() string {
	return c.name
}

// Delay returns the propagation delay in cycles.
func (c *Channel[T]) Delay() int {
	return c.delay
}

// SetSource records the endpoint that writes to the channel and the port
// index the channel occupies on that endpoint.
func (c *Channel[T]) SetSource(ep Endpoint, port int) {
	if c.source != nil && c.source != ep {
		log.Panicf("channel %s already has source %s, cannot attach %s",
			c.name, c.source.Name(), ep.Name())
	}

	c.source = ep
	c.sourcePort = port
}

// SetSink records the endpoint that reads from the channel and the port index
// the channel occupies on that endpoint.
func (c *Channel[T]) SetSink(ep Endpoint, port int) {
	if c.sink != nil && c.sink != ep {
		log.Panicf("channel %s already has sink %s, cannot attach %s",
			c.name, c.sink.Name(), ep.Name())
	}

	c.sink = ep
	c.sinkPort = port
}

// Source returns the writing endpoint and its port index.
func (c *Channel[T]) Source() (Endpoint, int) {
	return c.source, c.sourcePort
}

// Sink returns the reading endpoint and its port index.
func (c *Channel[T]) Sink() (Endpoint, int) {
	return c.sink, c.sinkPort
}

// Send puts a value on the channel for the current cycle. Only one value can
// be sent per cycle.
func (c *Channel[T]) Send(v T) {
	if c.hasInput {
		log.Panicf("channel %s: more than one send in cycle %d",
			c.name, c.cycle)
	}

	c.input = v
	c.hasInput = true

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosChannelSend,
			Item:   v,
			Detail: c.cycle,
		})
	}
}

// Receive returns the value presented to the sink in the current cycle.
func (c *Channel[T]) Receive() (v T, ok bool) {
	return c.output, c.hasOutput
}

// Advance ends the current cycle. The value sent in this cycle starts its
// propagation and the value due in the next cycle is presented to the sink.
func (c *Channel[T]) Advance() {
	if c.hasInput {
		c.pipe = append(c.pipe, inFlight[T]{
			value: c.input,
			ready: c.cycle + c.delay,
		})

		var zero T
		c.input = zero
		c.hasInput = false
	}

	c.cycle++

	var zero T
	c.output = zero
	c.hasOutput = false

	if len(c.pipe) > 0 && c.pipe[0].ready <= c.cycle {
		c.output = c.pipe[0].value
		c.hasOutput = true
		c.pipe[0] = inFlight[T]{}
		c.pipe = c.pipe[1:]

		if c.NumHooks() > 0 {
			c.InvokeHook(sim.HookCtx{
				Domain: c,
				Pos:    HookPosChannelDeliver,
				Item:   c.output,
				Detail: c.cycle,
			})
		}
	}
}

// InFlight returns the number of values that have been sent but not yet
// presented to the sink.
func (c *Channel[T]) InFlight() int {
	n := len(c.pipe)
	if c.hasInput {
		n++
	}

	return n
}
