package chaos

// allocate matches the head packets of free sources with unlocked outputs.
func (r *Router) allocate() {
	r.alloc.Clear()
	clear(r.ranges)

	for s := 0; s < r.numSources(); s++ {
		st := r.state(s)
		f := r.front(s)

		if st == nil || st.active || f == nil {
			continue
		}

		if !f.Head {
			panic("a packet must start with a head flit")
		}

		priority := priorityInput
		if r.isQueueSource(s) {
			priority = priorityMultiQueue
		}

		requested := false

		for _, c := range r.route(r.Base, f, r.inPortOf(s)) {
			if !r.outputUsable(c.Port) {
				continue
			}

			if _, ok := r.pickVC(c.Port, c.VCStart, c.VCEnd); !ok {
				continue
			}

			r.request(s, c.Port, priority, vcRange{c.VCStart, c.VCEnd})
			requested = true
		}

		if requested || !r.isQueueSource(s) || f.Dest == r.ID() {
			continue
		}

		r.requestDeroutes(s)
	}

	for _, g := range r.alloc.Allocate() {
		rg := r.ranges[[2]int{g.In, g.Out}]
		vc, _ := r.pickVC(g.Out, rg.start, rg.end)

		st := r.state(g.In)
		st.active = true
		st.outPort = g.Out
		st.outVC = vc
		st.waited = 0

		r.outLocks[g.Out] = outputLock{locked: true, source: g.In}
	}
}

func (r *Router) inPortOf(source int) int {
	if r.isQueueSource(source) {
		return r.localPort
	}

	input, _ := r.inputOf(source)

	return input
}

func (r *Router) request(source, output, priority int, rg vcRange) {
	key := [2]int{source, output}
	if old, found := r.ranges[key]; found && old != rg {
		// Keep the range of the request the allocator will keep.
		return
	}

	r.ranges[key] = rg
	r.alloc.AddRequest(source, output, output, priority)
}

func (r *Router) requestDeroutes(source int) {
	for o := 0; o < r.NumOutputs(); o++ {
		if o == r.localPort || !r.outputUsable(o) || !r.isConnected(o) {
			continue
		}

		if _, ok := r.pickVC(o, 0, r.vcs.NumVCs-1); !ok {
			continue
		}

		r.request(source, o, priorityDeroute, vcRange{0, r.vcs.NumVCs - 1})
	}
}

func (r *Router) outputUsable(output int) bool {
	return !r.outLocks[output].locked && !r.IsOutputFaulty(output)
}

func (r *Router) isConnected(output int) bool {
	ch := r.OutputChannel(output)
	if ch == nil {
		return false
	}

	ep, _ := ch.Sink()

	return ep != nil
}

// pickVC returns the virtual channel of the range with the most credits.
func (r *Router) pickVC(output, start, end int) (int, bool) {
	best, bestCredits := 0, 0

	for vc := start; vc <= end; vc++ {
		c := r.credits.Available(output, vc)
		if c > bestCredits {
			best, bestCredits = vc, c
		}
	}

	return best, bestCredits > 0
}

// stream moves one flit of every locked packet through the crossbar.
func (r *Router) stream() {
	for o := range r.outLocks {
		lock := r.outLocks[o]
		if !lock.locked || r.outUsed[o] {
			continue
		}

		st := r.state(lock.source)
		if r.front(lock.source) == nil ||
			r.credits.Available(o, st.outVC) == 0 {
			continue
		}

		if !r.isQueueSource(lock.source) {
			input, _ := r.inputOf(lock.source)
			if r.inUsed[input] >= r.InputSpeedup() {
				continue
			}

			r.inUsed[input]++
		}

		outVC := st.outVC
		f := r.pop(lock.source)

		r.credits.Consume(o, outVC)
		f.VC = outVC
		r.switchPipe.SendFlit(f, o)
		r.outUsed[o] = true

		if f.Tail {
			*st = packetState{}
			r.outLocks[o] = outputLock{}
		}
	}
}

// migrate moves fully buffered packets that have waited too long into free
// multi-queue slots.
func (r *Router) migrate() {
	for i := range r.inState {
		for vc := range r.inState[i] {
			st := &r.inState[i][vc]
			f := r.inputs.Front(i, vc)

			if st.active || f == nil || st.waited < r.derouteThreshold ||
				r.tails[i][vc] == 0 {
				continue
			}

			slot := r.freeQueueSlot()
			if slot < 0 {
				return
			}

			p := &queuedPacket{}
			source := i*r.vcs.NumVCs + vc

			for {
				flit := r.pop(source)
				p.flits = append(p.flits, flit)

				if flit.Tail {
					break
				}
			}

			r.multiQueue[slot] = p
			*st = packetState{}
		}
	}
}

func (r *Router) freeQueueSlot() int {
	for i, p := range r.multiQueue {
		if p == nil {
			return i
		}
	}

	return -1
}

func (r *Router) age() {
	for s := 0; s < r.numSources(); s++ {
		st := r.state(s)
		if st == nil || st.active || r.front(s) == nil {
			continue
		}

		st.waited++
	}
}
