package chaos

import "github.com/sarchlab/nocsim/noc/messaging"

// Sources are numbered input virtual channels first, then multi-queue slots.

func (r *Router) numSources() int {
	return r.NumInputs()*r.vcs.NumVCs + len(r.multiQueue)
}

func (r *Router) isQueueSource(source int) bool {
	return source >= r.NumInputs()*r.vcs.NumVCs
}

func (r *Router) inputOf(source int) (input, vc int) {
	return source / r.vcs.NumVCs, source % r.vcs.NumVCs
}

func (r *Router) queueOf(source int) *queuedPacket {
	return r.multiQueue[source-r.NumInputs()*r.vcs.NumVCs]
}

func (r *Router) state(source int) *packetState {
	if r.isQueueSource(source) {
		p := r.queueOf(source)
		if p == nil {
			return nil
		}

		return &p.packetState
	}

	input, vc := r.inputOf(source)

	return &r.inState[input][vc]
}

func (r *Router) front(source int) *messaging.Flit {
	if r.isQueueSource(source) {
		p := r.queueOf(source)
		if p == nil || len(p.flits) == 0 {
			return nil
		}

		return p.flits[0]
	}

	return r.inputs.Front(r.inputOf(source))
}

// pop removes the front flit of a source. Input slots are returned upstream;
// multi-queue slots were returned when the packet migrated.
func (r *Router) pop(source int) *messaging.Flit {
	if r.isQueueSource(source) {
		p := r.queueOf(source)
		f := p.flits[0]
		p.flits = p.flits[1:]

		if len(p.flits) == 0 {
			r.multiQueue[source-r.NumInputs()*r.vcs.NumVCs] = nil
		}

		return f
	}

	input, vc := r.inputOf(source)
	f := r.inputs.Pop(input, vc)
	r.switchPipe.FreeSlot(f.ID, input, vc)

	if f.Tail {
		r.tails[input][vc]--
	}

	return f
}
