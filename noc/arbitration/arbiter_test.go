package arbitration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
)

func grantSequence(a Arbiter, requesters []int, rounds int) []int {
	var winners []int

	for i := 0; i < rounds; i++ {
		a.Clear()
		for _, r := range requesters {
			a.AddRequest(r, 0)
		}

		w, ok := a.Arbitrate()
		Expect(ok).To(BeTrue())
		a.UpdateState(w)

		winners = append(winners, w)
	}

	return winners
}

var _ = Describe("Arbiters", func() {
	for _, kind := range []string{"round_robin", "matrix"} {
		kind := kind

		Context(kind, func() {
			var a Arbiter

			BeforeEach(func() {
				var err error
				a, err = New(kind, 4)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should report no winner without requests", func() {
				_, ok := a.Arbitrate()
				Expect(ok).To(BeFalse())
				Expect(a.Size()).To(Equal(4))
			})

			It("should rotate among persistent requesters", func() {
				Expect(grantSequence(a, []int{0, 2, 3}, 6)).
					To(Equal([]int{0, 2, 3, 0, 2, 3}))
			})

			It("should prefer higher priority", func() {
				a.AddRequest(0, 0)
				a.AddRequest(3, 5)

				w, _ := a.Arbitrate()
				Expect(w).To(Equal(3))
			})

			It("should not change state on arbitrate alone", func() {
				a.AddRequest(1, 0)
				a.AddRequest(2, 0)

				w1, _ := a.Arbitrate()
				w2, _ := a.Arbitrate()
				Expect(w1).To(Equal(w2))
			})

			It("should panic on out of range inputs", func() {
				Expect(func() { a.AddRequest(4, 0) }).To(Panic())
			})
		})
	}

	It("should reject unknown kinds", func() {
		_, err := New("lottery", 2)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should grant the least recently served input in a matrix arbiter",
		func() {
			a := NewMatrixArbiter(3)
			a.AddRequest(0, 0)
			a.AddRequest(1, 0)
			a.AddRequest(2, 0)
			a.UpdateState(1)

			w, _ := a.Arbitrate()
			Expect(w).To(Equal(0))

			a.UpdateState(0)
			w, _ = a.Arbitrate()
			Expect(w).To(Equal(2))
		})
})

var _ = Describe("SeparableAllocator", func() {
	var alloc *SeparableAllocator

	BeforeEach(func() {
		var err error
		alloc, err = NewSeparableAllocator("round_robin", 3, 2, 2)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should match without conflicts", func() {
		alloc.AddRequest(0, 0, 0, 0)
		alloc.AddRequest(1, 1, 1, 0)

		Expect(alloc.Allocate()).To(Equal([]Grant{
			{In: 0, Out: 0, Label: 0},
			{In: 1, Out: 1, Label: 1},
		}))
	})

	It("should give each output to at most one input", func() {
		alloc.AddRequest(0, 0, 1, 0)
		alloc.AddRequest(1, 0, 1, 0)
		alloc.AddRequest(2, 0, 1, 0)

		grants := alloc.Allocate()
		Expect(grants).To(HaveLen(1))
		Expect(grants[0].Out).To(Equal(1))
	})

	It("should give each input at most one grant", func() {
		alloc.AddRequest(0, 0, 0, 0)
		alloc.AddRequest(0, 1, 1, 0)

		Expect(alloc.Allocate()).To(HaveLen(1))
	})

	It("should be fair across allocations", func() {
		winners := make(map[int]int)

		for i := 0; i < 6; i++ {
			alloc.Clear()
			alloc.AddRequest(0, 0, 0, 0)
			alloc.AddRequest(1, 0, 0, 0)
			alloc.AddRequest(2, 0, 0, 0)

			grants := alloc.Allocate()
			Expect(grants).To(HaveLen(1))
			winners[grants[0].In]++
		}

		Expect(winners).To(Equal(map[int]int{0: 2, 1: 2, 2: 2}))
	})

	It("should keep the higher priority request of a requester", func() {
		alloc.AddRequest(0, 0, 0, 1)
		alloc.AddRequest(0, 0, 1, 0)

		Expect(alloc.Allocate()).To(Equal([]Grant{{In: 0, Out: 0, Label: 0}}))
	})

	It("should panic on out of range requests", func() {
		Expect(func() { alloc.AddRequest(3, 0, 0, 0) }).To(Panic())
		Expect(func() { alloc.AddRequest(0, 0, 2, 0) }).To(Panic())
	})
})
