package router

import (
	"log"

	"github.com/sarchlab/nocsim/noc/channel"
)

// RegisterInput attaches the next input port. The router becomes the sink of
// ch. credit is the back-channel on which the router returns credits for the
// port.
func (b *Base) RegisterInput(
	ch *channel.FlitChannel,
	credit *channel.CreditChannel,
) {
	port := len(b.inputs)
	if port >= b.numInputs {
		log.Panicf("router %s: registering input %d, but only %d inputs "+
			"are configured", b.name, port, b.numInputs)
	}

	b.inputs = append(b.inputs, ch)
	b.inputCredits = append(b.inputCredits, credit)
	ch.SetSink(b, port)
}

// RegisterOutput attaches the next output port. The router becomes the source
// of ch and reads the credits of the port from credit. The port starts as
// not faulty.
func (b *Base) RegisterOutput(
	ch *channel.FlitChannel,
	credit *channel.CreditChannel,
) {
	port := len(b.outputs)
	if port >= b.numOutputs {
		log.Panicf("router %s: registering output %d, but only %d outputs "+
			"are configured", b.name, port, b.numOutputs)
	}

	b.outputs = append(b.outputs, ch)
	b.outputCredits = append(b.outputCredits, credit)
	b.outputFaults = append(b.outputFaults, false)
	ch.SetSource(b, port)
}

// WiringMustBeComplete panics if fewer ports are registered than configured.
func (b *Base) WiringMustBeComplete() {
	if len(b.inputs) != b.numInputs || len(b.outputs) != b.numOutputs {
		log.Panicf("router %s: %d/%d inputs and %d/%d outputs registered",
			b.name,
			len(b.inputs), b.numInputs,
			len(b.outputs), b.numOutputs)
	}
}

// NumRegisteredInputs returns the number of input ports attached so far.
func (b *Base) NumRegisteredInputs() int {
	return len(b.inputs)
}

// NumRegisteredOutputs returns the number of output ports attached so far.
func (b *Base) NumRegisteredOutputs() int {
	return len(b.outputs)
}

// InputChannel returns the flit channel of input port i.
func (b *Base) InputChannel(i int) *channel.FlitChannel {
	return b.inputs[i]
}

// InputCreditChannel returns the credit back-channel of input port i.
func (b *Base) InputCreditChannel(i int) *channel.CreditChannel {
	return b.inputCredits[i]
}

// OutputChannel returns the flit channel of output port o.
func (b *Base) OutputChannel(o int) *channel.FlitChannel {
	return b.outputs[o]
}

// OutputCreditChannel returns the channel that brings credits for output
// port o.
func (b *Base) OutputCreditChannel(o int) *channel.CreditChannel {
	return b.outputCredits[o]
}
