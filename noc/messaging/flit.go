// Package messaging defines the payloads carried by network channels: flits
// on the forward direction and credits on the reverse direction.
package messaging

import (
	"fmt"
	"log"

	"github.com/sarchlab/nocsim/sim"
)

// Flit is the smallest transferring unit on a network. A packet is a
// sequence of flits that starts with a head flit and ends with a tail flit.
type Flit struct {
	ID string

	// PID identifies the packet that the flit belongs to.
	PID int

	// SeqID is the position of the flit in its packet.
	SeqID int

	// Src and Dest are terminal IDs.
	Src, Dest int

	// VC is the virtual channel the flit occupies on its current link.
	VC int

	Head, Tail bool

	Hops     int
	Priority int

	// CTime is the cycle the packet was created, ITime is the cycle the
	// flit left its source terminal, ATime is the cycle it was ejected.
	CTime, ITime, ATime int
}

func (f *Flit) String() string {
	return fmt.Sprintf("flit %s (pid %d seq %d, %d->%d, vc %d)",
		f.ID, f.PID, f.SeqID, f.Src, f.Dest, f.VC)
}

// FlitBuilder can build the flits of one packet.
type FlitBuilder struct {
	src, dest int
	pid       int
	size      int
	vc        int
	cTime     int
	priority  int
}

// MakeFlitBuilder creates a builder for single-flit packets.
func MakeFlitBuilder() FlitBuilder {
	return FlitBuilder{size: 1}
}

// WithSrc sets the source terminal of the packet.
func (b FlitBuilder) WithSrc(src int) FlitBuilder {
	b.src = src
	return b
}

// WithDest sets the destination terminal of the packet.
func (b FlitBuilder) WithDest(dest int) FlitBuilder {
	b.dest = dest
	return b
}

// WithPID sets the packet ID.
func (b FlitBuilder) WithPID(pid int) FlitBuilder {
	b.pid = pid
	return b
}

// WithSize sets the number of flits in the packet.
func (b FlitBuilder) WithSize(n int) FlitBuilder {
	b.size = n
	return b
}

// WithVC sets the virtual channel that the packet is injected on.
func (b FlitBuilder) WithVC(vc int) FlitBuilder {
	b.vc = vc
	return b
}

// WithCTime sets the creation cycle of the packet.
func (b FlitBuilder) WithCTime(cycle int) FlitBuilder {
	b.cTime = cycle
	return b
}

// WithPriority sets the priority of the packet.
func (b FlitBuilder) WithPriority(p int) FlitBuilder {
	b.priority = p
	return b
}

// BuildPacket creates the flits of the packet, head first.
func (b FlitBuilder) BuildPacket() []*Flit {
	if b.size < 1 {
		log.Panicf("packet %d must have at least one flit, got %d",
			b.pid, b.size)
	}

	flits := make([]*Flit, b.size)
	for i := 0; i < b.size; i++ {
		flits[i] = &Flit{
			ID:       sim.GetIDGenerator().Generate(),
			PID:      b.pid,
			SeqID:    i,
			Src:      b.src,
			Dest:     b.dest,
			VC:       b.vc,
			Head:     i == 0,
			Tail:     i == b.size-1,
			Priority: b.priority,
			CTime:    b.cTime,
			ITime:    -1,
			ATime:    -1,
		}
	}

	return flits
}
