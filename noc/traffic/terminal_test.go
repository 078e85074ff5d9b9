package traffic

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
)

type fakeRecorder struct {
	tables  []string
	entries map[string][]any
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{entries: make(map[string][]any)}
}

func (r *fakeRecorder) CreateTable(name string, _ any) {
	r.tables = append(r.tables, name)
}

func (r *fakeRecorder) InsertData(name string, entry any) {
	r.entries[name] = append(r.entries[name], entry)
}

func (r *fakeRecorder) ListTables() []string { return r.tables }
func (r *fakeRecorder) Flush()               {}
func (r *fakeRecorder) Close() error         { return nil }

var _ = Describe("Terminal", func() {
	var (
		cfg          *config.Config
		rng          *fixedRand
		recorder     *fakeRecorder
		inject       *channel.FlitChannel
		injectCredit *channel.CreditChannel
		eject        *channel.FlitChannel
		ejectCredit  *channel.CreditChannel
		terminal     *Terminal
	)

	toTerminal := func(n int) Pattern {
		return func(_ int, _ Rand) int { return n }
	}

	build := func() {
		var err error
		terminal, err = MakeBuilder().
			WithConfig(cfg).
			WithNumNodes(4).
			WithPattern(toTerminal(2)).
			WithRand(rng).
			WithRecorder(recorder).
			Build("Terminal[1]", 1)
		Expect(err).NotTo(HaveOccurred())

		inject = channel.NewFlitChannel("Inject", 1)
		injectCredit = channel.NewCreditChannel("InjectCredit", 1)
		eject = channel.NewFlitChannel("Eject", 1)
		ejectCredit = channel.NewCreditChannel("EjectCredit", 1)

		terminal.ConnectInject(inject, injectCredit)
		terminal.ConnectEject(eject, ejectCredit)
	}

	step := func() {
		terminal.Evaluate()
		terminal.WriteOutputs()
		inject.Advance()
		injectCredit.Advance()
		eject.Advance()
		ejectCredit.Advance()
	}

	BeforeEach(func() {
		cfg = config.Defaults()
		cfg.Set("injection_rate", 0.0)
		cfg.Set("packet_size", 2)
		cfg.Set("num_vcs", 2)
		cfg.Set("vc_buf_size", 1)

		rng = &fixedRand{value: 0.5}
		recorder = newFakeRecorder()
		build()
	})

	It("should be a channel endpoint", func() {
		var ep channel.Endpoint = terminal

		Expect(ep.Name()).To(Equal("Terminal[1]"))
		Expect(ep.ID()).To(Equal(1))

		src, port := inject.Source()
		Expect(src).To(BeIdenticalTo(terminal))
		Expect(port).To(Equal(0))
	})

	It("should inject one flit per cycle while it has credits", func() {
		terminal.SendPacket(3)
		Expect(terminal.NumQueuedFlits()).To(Equal(2))

		step()

		head, ok := inject.Receive()
		Expect(ok).To(BeTrue())
		Expect(head.Head).To(BeTrue())
		Expect(head.PID).To(Equal(1))
		Expect(head.Src).To(Equal(1))
		Expect(head.Dest).To(Equal(3))
		Expect(head.VC).To(Equal(0))
		Expect(head.ITime).To(Equal(0))

		step()

		_, ok = inject.Receive()
		Expect(ok).To(BeFalse())
		Expect(terminal.NumQueuedFlits()).To(Equal(1))

		injectCredit.Send(messaging.NewCredit(0))
		injectCredit.Advance()
		terminal.Evaluate()
		terminal.WriteOutputs()
		inject.Advance()

		tail, ok := inject.Receive()
		Expect(ok).To(BeTrue())
		Expect(tail.Tail).To(BeTrue())
		Expect(tail.ITime).To(Equal(2))
		Expect(terminal.Stats().InjectedFlits).To(Equal(2))
	})

	It("should rotate the virtual channel per packet", func() {
		cfg.Set("packet_size", 1)
		build()

		terminal.SendPacket(0)
		terminal.SendPacket(0)
		terminal.SendPacket(0)

		step()
		first, _ := inject.Receive()
		step()
		second, _ := inject.Receive()

		Expect(first.VC).To(Equal(0))
		Expect(second.VC).To(Equal(1))
		Expect(second.PID).To(Equal(5))

		step()
		_, ok := inject.Receive()
		Expect(ok).To(BeFalse(), "VC 0 has no credit left")
	})

	It("should create packets with the injection probability", func() {
		cfg.Set("injection_rate", 0.4)
		build()

		step()
		Expect(terminal.Stats().CreatedPackets).To(Equal(0))

		rng.value = 0.3
		step()
		Expect(terminal.Stats().CreatedPackets).To(Equal(1))
		Expect(terminal.Stats().InjectedFlits).To(Equal(1))
		Expect(terminal.NumQueuedFlits()).To(Equal(1))

		terminal.SetInjectionRate(0)
		step()
		Expect(terminal.Stats().CreatedPackets).To(Equal(1))
	})

	It("should eject packets, return credits and record them", func() {
		flits := messaging.MakeFlitBuilder().
			WithSrc(2).
			WithDest(1).
			WithPID(6).
			WithSize(2).
			WithVC(1).
			WithCTime(0).
			BuildPacket()
		for _, f := range flits {
			f.ITime = 0
			f.Hops = 3
		}

		eject.Send(flits[0])
		step()
		step()

		credit, ok := ejectCredit.Receive()
		Expect(ok).To(BeTrue())
		Expect(credit.VCs).To(Equal([]int{1}))
		Expect(flits[0].ATime).To(Equal(1))

		eject.Send(flits[1])
		step()
		step()

		stats := terminal.Stats()
		Expect(stats.EjectedFlits).To(Equal(2))
		Expect(stats.EjectedPackets).To(Equal(1))
		Expect(stats.PacketLatency).To(Equal([]float64{3}))

		Expect(recorder.entries[PacketTable]).To(ConsistOf(PacketRecord{
			PID:         6,
			Src:         2,
			Dest:        1,
			Size:        2,
			Hops:        3,
			CreateCycle: 0,
			InjectCycle: 0,
			ArriveCycle: 3,
			Latency:     3,
		}))
	})

	It("should panic on flits for another terminal", func() {
		f := messaging.MakeFlitBuilder().WithDest(2).BuildPacket()[0]

		eject.Send(f)
		eject.Advance()

		Expect(terminal.Evaluate).To(Panic())
	})

	It("should create the packet table", func() {
		CreatePacketTable(recorder)

		Expect(recorder.tables).To(Equal([]string{PacketTable}))
	})

	DescribeTable("should reject invalid configuration",
		func(key string, value any) {
			cfg.Set(key, value)

			_, err := MakeBuilder().
				WithConfig(cfg).
				WithNumNodes(4).
				WithPattern(toTerminal(0)).
				Build("Terminal[0]", 0)

			Expect(err).To(MatchError(config.ErrInvalidValue))
		},
		Entry("empty packets", "packet_size", 0),
		Entry("rate above one", "injection_rate", 1.5),
		Entry("negative rate", "injection_rate", -0.1),
		Entry("no virtual channels", "num_vcs", 0),
	)
})
