package buffers

import (
	"log"

	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router"
)

// CreditCounter tracks the free downstream buffer slots of every output
// virtual channel.
type CreditCounter struct {
	max     int
	credits [][]int
}

// NewCreditCounter starts every output virtual channel with a full
// downstream buffer.
func NewCreditCounter(outputs int, vcs VCConfig) *CreditCounter {
	c := &CreditCounter{max: vcs.BufSize, credits: make([][]int, outputs)}

	for o := range c.credits {
		c.credits[o] = make([]int, vcs.NumVCs)
		for vc := range c.credits[o] {
			c.credits[o][vc] = vcs.BufSize
		}
	}

	return c
}

// Available returns the free slots of an output virtual channel.
func (c *CreditCounter) Available(output, vc int) int {
	return c.credits[output][vc]
}

// Consume takes one slot for a flit about to be sent.
func (c *CreditCounter) Consume(output, vc int) {
	if c.credits[output][vc] <= 0 {
		log.Panicf("output %d vc %d has no credit", output, vc)
	}

	c.credits[output][vc]--
}

// Restore gives back the slots listed in a credit.
func (c *CreditCounter) Restore(output int, credit *messaging.Credit) {
	for _, vc := range credit.VCs {
		if c.credits[output][vc] >= c.max {
			log.Panicf("output %d vc %d received more credits than "+
				"its buffer size %d", output, vc, c.max)
		}

		c.credits[output][vc]++
	}
}

// Receive collects the credits presented on the output credit channels of r.
func (c *CreditCounter) Receive(r *router.Base) {
	for o := range c.credits {
		ch := r.OutputCreditChannel(o)
		if ch == nil {
			continue
		}

		credit, ok := ch.Receive()
		if !ok {
			continue
		}

		c.Restore(o, credit)
	}
}

// CreditReturn collects the slots freed at each input until they are sent
// upstream.
type CreditReturn struct {
	pending []*messaging.Credit
}

// NewCreditReturn creates an empty CreditReturn for the given number of
// inputs.
func NewCreditReturn(inputs int) *CreditReturn {
	return &CreditReturn{pending: make([]*messaging.Credit, inputs)}
}

// Add records that one slot of vc at input has been freed.
func (c *CreditReturn) Add(input, vc int) {
	if c.pending[input] == nil {
		c.pending[input] = messaging.NewCredit()
	}

	c.pending[input].Add(vc)
}

// Send puts the pending credit of every input on its credit channel.
func (c *CreditReturn) Send(r *router.Base) {
	for i, credit := range c.pending {
		if credit == nil {
			continue
		}

		ch := r.InputCreditChannel(i)
		if ch != nil {
			ch.Send(credit)
		}

		c.pending[i] = nil
	}
}
