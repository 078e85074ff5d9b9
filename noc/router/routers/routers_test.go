package routers

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/router"
)

type namedParent string

func (n namedParent) Name() string {
	return string(n)
}

var _ = Describe("Default factory", func() {
	var factory *router.Factory

	BeforeEach(func() {
		factory = NewDefaultFactory()
	})

	It("should know every switching strategy", func() {
		Expect(factory.Names()).To(Equal([]string{
			"chaos", "event", "iq", "iq_combined", "iq_split",
		}))
	})

	DescribeTable("creating a router",
		func(kind string) {
			cfg := config.Defaults()
			cfg.Set("router", kind)

			r, err := factory.Create(cfg, namedParent("Mesh"), "Router[5]",
				5, 5, 5)

			Expect(err).NotTo(HaveOccurred())
			Expect(r.Name()).To(Equal("Mesh.Router[5]"))
			Expect(r.ID()).To(Equal(5))
			Expect(r.NumInputs()).To(Equal(5))
			Expect(r.NumOutputs()).To(Equal(5))
		},
		Entry("input queued", "iq"),
		Entry("input queued with combined allocation", "iq_combined"),
		Entry("input queued with split allocation", "iq_split"),
		Entry("event driven", "event"),
		Entry("chaotic", "chaos"),
	)

	It("should return no router for an unknown type", func() {
		cfg := config.Defaults()
		cfg.Set("router", "wormhole")

		r, err := factory.Create(cfg, namedParent("Mesh"), "Router", 0, 5, 5)

		Expect(r).To(BeNil())
		Expect(err).To(MatchError(router.ErrUnknownRouter))
	})

	It("should pass configuration errors through", func() {
		cfg := config.Defaults()
		cfg.Set("router", "iq")
		cfg.Set("internal_speedup", 0.0)

		r, err := factory.Create(cfg, namedParent("Mesh"), "Router", 0, 5, 5)

		Expect(r).To(BeNil())
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})
})
