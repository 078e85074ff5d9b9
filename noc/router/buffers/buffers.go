// Package buffers holds the per-port state that switching strategies share:
// virtual channel input buffers, downstream credit counters, pending credit
// returns and output queues.
package buffers

import (
	"fmt"
	"log"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/sim"
)

// VCConfig is the virtual channel setup shared by every router of a network.
type VCConfig struct {
	NumVCs  int
	BufSize int
}

// ReadVCConfig reads num_vcs and vc_buf_size.
func ReadVCConfig(cfg config.Source) (VCConfig, error) {
	numVCs, err := cfg.GetInt("num_vcs")
	if err != nil {
		return VCConfig{}, err
	}

	bufSize, err := cfg.GetInt("vc_buf_size")
	if err != nil {
		return VCConfig{}, err
	}

	if numVCs < 1 || bufSize < 1 {
		return VCConfig{}, fmt.Errorf(
			"%w: num_vcs and vc_buf_size must be positive, got %d and %d",
			config.ErrInvalidValue, numVCs, bufSize)
	}

	return VCConfig{NumVCs: numVCs, BufSize: bufSize}, nil
}

// InputBuffers are the virtual channel buffers of every input port.
type InputBuffers struct {
	vcs  VCConfig
	bufs [][]sim.Buffer
}

// NewInputBuffers creates the buffers of a router with the given number of
// inputs.
func NewInputBuffers(owner sim.Named, inputs int, vcs VCConfig) *InputBuffers {
	b := &InputBuffers{vcs: vcs, bufs: make([][]sim.Buffer, inputs)}

	for i := 0; i < inputs; i++ {
		b.bufs[i] = make([]sim.Buffer, vcs.NumVCs)
		for vc := 0; vc < vcs.NumVCs; vc++ {
			name := fmt.Sprintf("%s.Input[%d].VC[%d]", owner.Name(), i, vc)
			b.bufs[i][vc] = sim.NewBuffer(name, vcs.BufSize)
		}
	}

	return b
}

// Front returns the oldest flit of a virtual channel, or nil.
func (b *InputBuffers) Front(input, vc int) *messaging.Flit {
	f := b.bufs[input][vc].Peek()
	if f == nil {
		return nil
	}

	return f.(*messaging.Flit)
}

// Pop removes the oldest flit of a virtual channel.
func (b *InputBuffers) Pop(input, vc int) *messaging.Flit {
	return b.bufs[input][vc].Pop().(*messaging.Flit)
}

// An Arrival is a flit that was buffered at an input virtual channel.
type Arrival struct {
	Input, VC int
	Flit      *messaging.Flit
}

// Receive moves the flits presented on the input channels of r into the
// buffers. An arriving flit that does not fit means the upstream side ignored
// its credits, which panics.
func (b *InputBuffers) Receive(r *router.Base) []Arrival {
	var arrived []Arrival

	for i := range b.bufs {
		ch := r.InputChannel(i)
		if ch == nil {
			continue
		}

		f, ok := ch.Receive()
		if !ok {
			continue
		}

		if f.VC < 0 || f.VC >= b.vcs.NumVCs {
			log.Panicf("%s: flit %s arrived on vc %d, only %d vcs",
				r.Name(), f.ID, f.VC, b.vcs.NumVCs)
		}

		buf := b.bufs[i][f.VC]
		if !buf.CanPush() {
			log.Panicf("%s: input %d vc %d overflow, credits violated",
				r.Name(), i, f.VC)
		}

		buf.Push(f)

		arrived = append(arrived, Arrival{Input: i, VC: f.VC, Flit: f})
	}

	return arrived
}
