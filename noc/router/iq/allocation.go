package iq

import (
	"github.com/sarchlab/nocsim/noc/arbitration"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/routing"
)

type flitFilter func(f *messaging.Flit) bool

func anyFlit(*messaging.Flit) bool { return true }

func headFlit(f *messaging.Flit) bool { return f.Head }

func nonHeadFlit(f *messaging.Flit) bool { return !f.Head }

// candidates returns the routes of a waiting head flit with faulty outputs
// removed.
func (r *Router) candidates(f *messaging.Flit, input int) []routing.Candidate {
	if !f.Head {
		panic("a packet must start with a head flit")
	}

	var healthy []routing.Candidate

	for _, c := range r.route(r.Base, f, input) {
		if !r.IsOutputFaulty(c.Port) {
			healthy = append(healthy, c)
		}
	}

	return healthy
}

func (r *Router) allocateVCs() {
	v := r.vcs.NumVCs
	r.vcAlloc.Clear()

	for i := range r.vcState {
		for vc := range r.vcState[i] {
			if r.vcState[i][vc].active {
				continue
			}

			f := r.inputs.Front(i, vc)
			if f == nil {
				continue
			}

			for _, c := range r.candidates(f, i) {
				for ovc := c.VCStart; ovc <= c.VCEnd; ovc++ {
					if r.outVCBusy[c.Port][ovc] {
						continue
					}

					out := c.Port*v + ovc
					r.vcAlloc.AddRequest(i*v+vc, out, out, f.Priority)
				}
			}
		}
	}

	for _, g := range r.vcAlloc.Allocate() {
		r.assignVC(g.In/v, g.In%v, g.Out/v, g.Out%v)
	}
}

func (r *Router) assignVC(input, vc, outPort, outVC int) {
	r.vcState[input][vc] = inputVC{
		active:  true,
		outPort: outPort,
		outVC:   outVC,
	}
	r.outVCBusy[outPort][outVC] = true
}

// pickVC finds a free output virtual channel with credits for a head flit
// during combined allocation.
func (r *Router) pickVC(f *messaging.Flit, input int) (port, vc int, ok bool) {
	for _, c := range r.candidates(f, input) {
		for ovc := c.VCStart; ovc <= c.VCEnd; ovc++ {
			if !r.outVCBusy[c.Port][ovc] && r.credits.Available(c.Port, ovc) > 0 {
				return c.Port, ovc, true
			}
		}
	}

	return 0, 0, false
}

type switchRequest struct {
	outPort, outVC int
	needsVC        bool
}

func (r *Router) allocateSwitch(
	alloc *arbitration.SeparableAllocator,
	filter flitFilter,
) {
	inSp := r.InputSpeedup()
	outSp := r.OutputSpeedup()

	alloc.Clear()

	pending := make(map[[2]int]switchRequest)

	for i := range r.vcState {
		for vc := range r.vcState[i] {
			f := r.inputs.Front(i, vc)
			if f == nil || !filter(f) {
				continue
			}

			req, ok := r.switchRequest(f, i, vc)
			if !ok {
				continue
			}

			in := i*inSp + vc%inSp
			out := req.outPort*outSp + i%outSp

			if r.usedIn[in] || r.usedOut[out] {
				continue
			}

			pending[[2]int{i, vc}] = req
			alloc.AddRequest(in, vc, out, f.Priority)
		}
	}

	for _, g := range alloc.Allocate() {
		i := g.In / inSp
		vc := g.Label
		req := pending[[2]int{i, vc}]

		if req.needsVC {
			if r.outVCBusy[req.outPort][req.outVC] {
				continue
			}

			r.assignVC(i, vc, req.outPort, req.outVC)
		}

		r.usedIn[g.In] = true
		r.usedOut[g.Out] = true

		r.traverse(i, vc)
	}
}

func (r *Router) switchRequest(
	f *messaging.Flit,
	input, vc int,
) (switchRequest, bool) {
	st := r.vcState[input][vc]

	if st.active {
		if r.credits.Available(st.outPort, st.outVC) == 0 {
			return switchRequest{}, false
		}

		return switchRequest{outPort: st.outPort, outVC: st.outVC}, true
	}

	if r.mode != modeCombined {
		return switchRequest{}, false
	}

	port, ovc, ok := r.pickVC(f, input)
	if !ok {
		return switchRequest{}, false
	}

	return switchRequest{outPort: port, outVC: ovc, needsVC: true}, true
}

// traverse moves the front flit of an input virtual channel into the
// crossbar and frees its buffer slot.
func (r *Router) traverse(input, vc int) {
	st := &r.vcState[input][vc]
	f := r.inputs.Pop(input, vc)

	r.credits.Consume(st.outPort, st.outVC)
	f.VC = st.outVC

	r.switchPipe.SendFlit(f, st.outPort)
	r.switchPipe.FreeSlot(f.ID, input, vc)

	if f.Tail {
		r.outVCBusy[st.outPort][st.outVC] = false
		*st = inputVC{}
	}
}
