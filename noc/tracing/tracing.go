// Package tracing provides hooks that observe flits as they travel on
// channels.
package tracing

import (
	"log"
	"sort"
	"sync"

	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/sim"
)

// FlitLogger is a hook that prints every flit delivered by a channel.
type FlitLogger struct {
	*log.Logger
}

// NewFlitLogger returns a FlitLogger that writes into logger.
func NewFlitLogger(logger *log.Logger) *FlitLogger {
	return &FlitLogger{Logger: logger}
}

// Func writes the delivery into the logger.
func (h *FlitLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != channel.HookPosChannelDeliver {
		return
	}

	f, ok := ctx.Item.(*messaging.Flit)
	if !ok {
		return
	}

	ch, ok := ctx.Domain.(sim.Named)
	if !ok {
		return
	}

	h.Printf("%d, %s, %s", ctx.Detail, ch.Name(), f)
}

// LinkCounter counts the flits delivered on each channel.
type LinkCounter struct {
	lock sync.Mutex

	names  []string
	counts map[string]uint64
}

// NewLinkCounter creates a new LinkCounter.
func NewLinkCounter() *LinkCounter {
	return &LinkCounter{counts: make(map[string]uint64)}
}

// Func counts a flit delivery.
func (c *LinkCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != channel.HookPosChannelDeliver {
		return
	}

	if _, ok := ctx.Item.(*messaging.Flit); !ok {
		return
	}

	ch, ok := ctx.Domain.(sim.Named)
	if !ok {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if _, found := c.counts[ch.Name()]; !found {
		c.names = append(c.names, ch.Name())
	}

	c.counts[ch.Name()]++
}

// Names returns the channels that delivered at least one flit, in the order
// they were first seen.
func (c *LinkCounter) Names() []string {
	return c.names
}

// Count returns the number of flits delivered on the named channel.
func (c *LinkCounter) Count(name string) uint64 {
	return c.counts[name]
}

// LinkLoad is the number of flits a channel delivered.
type LinkLoad struct {
	Name  string
	Flits uint64
}

// Busiest returns up to n channels with the most deliveries. Ties are broken
// by name.
func (c *LinkCounter) Busiest(n int) []LinkLoad {
	loads := make([]LinkLoad, 0, len(c.names))
	for _, name := range c.names {
		loads = append(loads, LinkLoad{Name: name, Flits: c.counts[name]})
	}

	sort.Slice(loads, func(i, j int) bool {
		if loads[i].Flits != loads[j].Flits {
			return loads[i].Flits > loads[j].Flits
		}

		return loads[i].Name < loads[j].Name
	})

	if len(loads) > n {
		loads = loads[:n]
	}

	return loads
}
