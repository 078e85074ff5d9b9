package network

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/router/routers"
	"github.com/sarchlab/nocsim/noc/tracing"
	"github.com/sarchlab/nocsim/noc/traffic"
	"github.com/sarchlab/nocsim/sim"
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

var _ = Describe("Network", func() {
	var (
		cfg     *config.Config
		factory *router.Factory
	)

	BeforeEach(func() {
		cfg = config.Defaults()
		cfg.Set("injection_rate", 0.0)
		factory = routers.NewDefaultFactory()
	})

	mustBuild := func() *Network {
		n, err := Build(cfg, factory, nil)
		Expect(err).NotTo(HaveOccurred())

		return n
	}

	DescribeTable("should deliver a packet across a mesh",
		func(routerType string) {
			cfg.Set("router", routerType)
			n := mustBuild()

			n.Terminal(0).SendPacket(15)

			Expect(n.Drain(200)).To(BeTrue())

			stats := n.Terminal(15).Stats()
			Expect(stats.EjectedPackets).To(Equal(1))
			Expect(stats.EjectedFlits).To(Equal(4))
			Expect(stats.Hops).To(Equal([]float64{7}))
			Expect(n.NumFlitsInChannels()).To(Equal(0))
		},
		Entry("input-queued", "iq"),
		Entry("combined allocation", "iq_combined"),
		Entry("split allocation", "iq_split"),
		Entry("event-driven", "event"),
		Entry("chaos", "chaos"),
	)

	It("should name routers and terminals after the network", func() {
		n := mustBuild()

		Expect(n.NumNodes()).To(Equal(16))
		Expect(n.Router(5).Name()).To(Equal("Network.Router[5]"))
		Expect(n.Router(5).ID()).To(Equal(5))
		Expect(n.Terminal(5).Name()).To(Equal("Network.Terminal[5]"))
	})

	It("should take the short way around a torus", func() {
		cfg.Set("topology", "torus")
		n := mustBuild()

		n.Terminal(0).SendPacket(3)

		Expect(n.Drain(100)).To(BeTrue())
		Expect(n.Terminal(3).Stats().Hops).To(Equal([]float64{2}))
	})

	It("should route on an anynet", func() {
		file := filepath.Join(GinkgoT().TempDir(), "ring.yaml")
		Expect(os.WriteFile(file, []byte(
			"routers:\n  0: [1, 3]\n  1: [0, 2]\n  2: [1, 3]\n  3: [2, 0]\n",
		), 0o644)).To(Succeed())

		cfg.Set("topology", "anynet")
		cfg.Set("routing_function", "table")
		cfg.Set("network_file", file)
		n, err := BuildAnynet(cfg, factory, nil)
		Expect(err).NotTo(HaveOccurred())

		n.Terminal(0).SendPacket(2)
		n.Terminal(3).SendPacket(1)

		Expect(n.Drain(100)).To(BeTrue())
		Expect(n.Terminal(2).Stats().Hops).To(Equal([]float64{3}))
		Expect(n.Terminal(1).Stats().Hops).To(Equal([]float64{3}))
	})

	DescribeTable("should deliver uniform random traffic",
		func(routerType string) {
			cfg.Set("router", routerType)
			cfg.Set("injection_rate", 0.05)
			n := mustBuild()

			n.Run(300)
			Expect(n.Drain(3000)).To(BeTrue())

			stats := n.Stats()
			Expect(stats.CreatedPackets).To(BeNumerically(">", 0))
			Expect(stats.EjectedPackets).To(Equal(stats.CreatedPackets))
			Expect(stats.EjectedFlits).To(Equal(stats.InjectedFlits))
			Expect(stats.Summary().MeanPacketLatency).
				To(BeNumerically(">", 0))
		},
		Entry("input-queued", "iq"),
		Entry("combined allocation", "iq_combined"),
		Entry("split allocation", "iq_split"),
		Entry("event-driven", "event"),
		Entry("chaos", "chaos"),
	)

	Context("with random traffic", func() {
		runLoaded := func() *traffic.Stats {
			cfg.Set("injection_rate", 0.1)
			n := mustBuild()
			n.Run(500)

			return n.Stats()
		}

		It("should repeat the traffic of one configuration", func() {
			first := runLoaded()
			second := runLoaded()

			Expect(first.CreatedPackets).To(BeNumerically(">", 0))
			Expect(second).To(Equal(first))
		})

		It("should change the traffic with the seed name", func() {
			cfg.Set("seed_name", "alpha")
			alpha := runLoaded()

			cfg.Set("seed_name", "zeta")
			zeta := runLoaded()

			Expect(zeta.PacketLatency).NotTo(Equal(alpha.PacketLatency))
		})
	})

	It("should record delivered packets", func() {
		recorder := newFakeRecorder()
		n, err := Build(cfg, factory, recorder)
		Expect(err).NotTo(HaveOccurred())

		n.Terminal(1).SendPacket(2)
		Expect(n.Drain(100)).To(BeTrue())

		Expect(recorder.tables).To(Equal([]string{traffic.PacketTable}))
		Expect(recorder.entries[traffic.PacketTable]).To(HaveLen(1))

		record := recorder.entries[traffic.PacketTable][0].(traffic.PacketRecord)
		Expect(record.Src).To(Equal(1))
		Expect(record.Dest).To(Equal(2))
		Expect(record.Hops).To(Equal(2))
	})

	Context("with faults", func() {
		It("should hold packets behind a faulty output", func() {
			n := mustBuild()

			Expect(n.InjectFault(0, 0)).To(Succeed())
			Expect(n.Router(0).IsOutputFaulty(0)).To(BeTrue())

			n.Terminal(0).SendPacket(1)
			Expect(n.Drain(50)).To(BeFalse())

			Expect(n.RepairFault(0, 0)).To(Succeed())
			Expect(n.Drain(50)).To(BeTrue())
			Expect(n.Terminal(1).Stats().EjectedPackets).To(Equal(1))
		})

		It("should reject faults on missing ports", func() {
			n := mustBuild()

			Expect(n.InjectFault(16, 0)).NotTo(Succeed())
			Expect(n.InjectFault(0, 5)).NotTo(Succeed())
			Expect(n.InjectFault(-1, 0)).NotTo(Succeed())
		})
	})

	Context("with invalid configuration", func() {
		It("should reject unknown router types", func() {
			cfg.Set("router", "wormhole")

			n, err := Build(cfg, factory, nil)

			Expect(n).To(BeNil())
			Expect(err).To(MatchError(router.ErrUnknownRouter))
		})

		DescribeTable("should reject invalid values",
			func(key string, value any) {
				cfg.Set(key, value)

				n, err := Build(cfg, factory, nil)

				Expect(n).To(BeNil())
				Expect(err).To(MatchError(config.ErrInvalidValue))
			},
			Entry("unknown topology", "topology", "butterfly"),
			Entry("unknown traffic", "traffic", "hotspot"),
			Entry("zero channel latency", "channel_latency", 0),
			Entry("zero credit latency", "credit_latency", 0),
			Entry("one-node dimension", "k", 1),
		)

		It("should reject bitcomp traffic on a 3x3 mesh", func() {
			cfg.Set("k", 3)
			cfg.Set("traffic", "bitcomp")

			_, err := Build(cfg, factory, nil)

			Expect(err).To(MatchError(config.ErrInvalidValue))
		})

		It("should reject a mesh given to the anynet builder", func() {
			_, err := BuildAnynet(cfg, factory, nil)

			Expect(err).To(MatchError(config.ErrInvalidValue))
		})

		It("should report missing keys", func() {
			c := config.New()
			c.Set("topology", "mesh")

			_, err := Build(c, factory, nil)

			Expect(err).To(MatchError(config.ErrMissingKey))
		})
	})

	It("should count link traversals with channel hooks", func() {
		n := mustBuild()
		counter := tracing.NewLinkCounter()
		n.AcceptChannelHook(counter)

		n.Terminal(0).SendPacket(1)
		Expect(n.Drain(100)).To(BeTrue())

		Expect(counter.Names()).To(Equal([]string{
			"Network.Inject[0]", "Network.Link[0][0]", "Network.Eject[1]",
		}))
		Expect(counter.Count("Network.Link[0][0]")).To(Equal(uint64(4)))
	})

	It("should run from an event engine", func() {
		n := mustBuild()
		engine := sim.NewSerialEngine()

		driver := NewTickingNetwork(n, engine, 1*sim.GHz, 20)
		driver.Start()

		Expect(engine.Run()).To(Succeed())
		Expect(n.Cycle()).To(Equal(20))
		Expect(driver.Name()).To(Equal("Network.Driver"))
	})
})
