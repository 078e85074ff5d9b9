package messaging

import "github.com/sarchlab/nocsim/sim"

// Credit tells the upstream side that buffer slots have been freed. Each
// entry in VCs frees one slot of that virtual channel.
type Credit struct {
	ID  string
	VCs []int
}

// NewCredit creates a credit for the given virtual channels.
func NewCredit(vcs ...int) *Credit {
	return &Credit{
		ID:  sim.GetIDGenerator().Generate(),
		VCs: vcs,
	}
}

// Add frees one more slot of vc.
func (c *Credit) Add(vc int) {
	c.VCs = append(c.VCs, vc)
}
