package router

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/sim"
)

type stubRouter struct {
	*Base

	reads, steps, writes int
}

func (r *stubRouter) ReadInputs() {
	r.reads++
}

func (r *stubRouter) InternalStep() {
	r.steps++
}

func (r *stubRouter) WriteOutputs() {
	r.writes++
}

func newStubRouter(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (Router, error) {
	r := &stubRouter{}

	base, err := NewBase(cfg, parent, name, id, inputs, outputs, r)
	if err != nil {
		return nil, err
	}

	r.Base = base

	return r, nil
}

var _ = Describe("Factory", func() {
	var (
		factory *Factory
		cfg     *config.Config
	)

	BeforeEach(func() {
		factory = NewFactory()
		factory.Register("iq", newStubRouter)
		factory.Register("event", newStubRouter)
		cfg = routerConfig(1)
	})

	It("should list the registered types", func() {
		Expect(factory.Names()).To(Equal([]string{"event", "iq"}))
	})

	It("should panic on duplicated registration", func() {
		Expect(func() { factory.Register("iq", newStubRouter) }).To(Panic())
	})

	It("should create a known router type", func() {
		r, err := factory.Create(cfg, namedParent("Network"), "Router[5]",
			5, 3, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(r).NotTo(BeNil())
		Expect(r.ID()).To(Equal(5))
		Expect(r.Name()).To(Equal("Network.Router[5]"))
		Expect(r.NumInputs()).To(Equal(3))
		Expect(r).To(BeAssignableToTypeOf(&stubRouter{}))
	})

	It("should return nil for an unknown router type", func() {
		cfg.Set("router", "wormhole")

		var r Router
		var err error
		Expect(func() {
			r, err = factory.Create(cfg, nil, "Router", 0, 1, 1)
		}).NotTo(Panic())

		Expect(r).To(BeNil())
		Expect(errors.Is(err, ErrUnknownRouter)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("wormhole"))
	})

	It("should require the router and topology keys", func() {
		_, err := factory.Create(routerConfigWithout("router"), nil,
			"Router", 0, 1, 1)
		Expect(err).To(MatchError(config.ErrMissingKey))

		_, err = factory.Create(routerConfigWithout("topology"), nil,
			"Router", 0, 1, 1)
		Expect(err).To(MatchError(config.ErrMissingKey))
	})

	It("should surface constructor errors", func() {
		_, err := factory.Create(routerConfigWithout("credit_delay"), nil,
			"Router", 0, 1, 1)
		Expect(err).To(MatchError(config.ErrMissingKey))
	})

	It("should dispatch evaluation to the created router", func() {
		r, err := factory.Create(cfg, nil, "Router", 0, 1, 1)
		Expect(err).NotTo(HaveOccurred())

		r.Evaluate()
		r.WriteOutputs()

		stub := r.(*stubRouter)
		Expect(stub.reads).To(Equal(1))
		Expect(stub.steps).To(Equal(1))
		Expect(stub.writes).To(Equal(1))
	})
})
