package event

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router/routertest"
)

func lineConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Set("router", "event")
	cfg.Set("k", 2)
	cfg.Set("n", 1)
	cfg.Set("num_vcs", 2)
	cfg.Set("vc_buf_size", 4)

	return cfg
}

func packet(pid, dest, size, vc int) []*messaging.Flit {
	return messaging.MakeFlitBuilder().
		WithDest(dest).
		WithPID(pid).
		WithSize(size).
		WithVC(vc).
		BuildPacket()
}

func newHarness(cfg *config.Config) (*routertest.Harness, *Router) {
	r, err := New(cfg, nil, "Router", 0, 3, 3)
	Expect(err).NotTo(HaveOccurred())

	numVCs, _ := cfg.GetInt("num_vcs")
	bufSize, _ := cfg.GetInt("vc_buf_size")

	return routertest.New(r, numVCs, bufSize), r.(*Router)
}

var _ = Describe("Event Router", func() {
	It("should forward a flit to the productive output", func() {
		h, _ := newHarness(lineConfig())
		h.Inject(2, packet(1, 1, 1, 0)...)
		h.Run(10)

		Expect(h.Arrivals[0]).To(HaveLen(1))
		Expect(h.Arrivals[0][0].Cycle).To(Equal(2))
	})

	It("should keep the flits of a packet in order", func() {
		h, _ := newHarness(lineConfig())
		flits := packet(1, 1, 4, 1)
		h.Inject(2, flits...)
		h.Run(20)

		Expect(h.Delivered(0)).To(Equal(flits))
	})

	It("should interleave packets on different output vcs", func() {
		h, _ := newHarness(lineConfig())
		h.Inject(1, packet(1, 1, 3, 0)...)
		h.Inject(2, packet(2, 1, 3, 1)...)
		h.Run(30)

		perVC := make(map[int][]int)
		for _, f := range h.Delivered(0) {
			perVC[f.VC] = append(perVC[f.VC], f.PID*10+f.SeqID)
		}

		Expect(perVC).To(HaveLen(2))
		Expect(perVC).To(ContainElements(
			[]int{10, 11, 12}, []int{20, 21, 22}))
	})

	DescribeTable("events per internal step",
		func(events, localArrival int) {
			cfg := lineConfig()
			cfg.Set("event_buf_size", events)

			h, _ := newHarness(cfg)
			h.Inject(1, packet(1, 1, 1, 0)...)
			h.Inject(2, packet(2, 0, 1, 0)...)
			h.Run(10)

			Expect(h.Arrivals[0][0].Cycle).To(Equal(2))
			Expect(h.Arrivals[2][0].Cycle).To(Equal(localArrival))
		},
		Entry("one event per step", 1, 3),
		Entry("several events per step", 8, 2),
	)

	It("should park on exhausted credits instead of polling", func() {
		cfg := lineConfig()
		cfg.Set("num_vcs", 1)
		cfg.Set("vc_buf_size", 2)

		h, r := newHarness(cfg)
		h.ReturnCredits = false
		for pid := 0; pid < 4; pid++ {
			h.Inject(2, packet(pid, 1, 1, 0)...)
		}

		h.Run(20)
		Expect(h.Arrivals[0]).To(HaveLen(2))
		Expect(r.NumPendingEvents()).To(Equal(0))

		h.ReturnCredit(0, 0, 2)
		h.Run(20)
		Expect(h.Arrivals[0]).To(HaveLen(4))
	})

	It("should wake up when a faulty output recovers", func() {
		h, r := newHarness(lineConfig())
		h.Router.SetOutputFault(0, true)
		h.Inject(2, packet(1, 1, 1, 0)...)
		h.Run(10)

		Expect(h.NumDelivered()).To(Equal(0))
		Expect(r.NumPendingEvents()).To(Equal(0))

		h.Router.SetOutputFault(0, false)
		Expect(r.NumPendingEvents()).To(Equal(1))

		h.Run(10)
		Expect(h.Arrivals[0]).To(HaveLen(1))
	})

	It("should reject a non-positive event budget", func() {
		cfg := lineConfig()
		cfg.Set("event_buf_size", 0)

		_, err := New(cfg, nil, "Router", 0, 3, 3)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})
})
