package traffic

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/topology"
)

type fixedRand struct {
	value float64
}

func (r *fixedRand) RandU01() float64 {
	return r.value
}

var _ = Describe("Pattern", func() {
	var mesh4x4 *topology.KNCube

	BeforeEach(func() {
		var err error
		mesh4x4, err = topology.NewKNCube(4, 2, false)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should list the patterns", func() {
		Expect(PatternNames()).To(Equal(
			[]string{"bitcomp", "neighbor", "transpose", "uniform"}))
	})

	It("should pick uniform destinations from the random value", func() {
		p, err := NewPattern("uniform", mesh4x4)
		Expect(err).NotTo(HaveOccurred())

		Expect(p(3, &fixedRand{value: 0})).To(Equal(0))
		Expect(p(3, &fixedRand{value: 0.5})).To(Equal(8))
		Expect(p(3, &fixedRand{value: 0.9999})).To(Equal(15))
	})

	It("should swap address halves for transpose", func() {
		p, err := NewPattern("transpose", mesh4x4)
		Expect(err).NotTo(HaveOccurred())

		Expect(p(1, nil)).To(Equal(4))
		Expect(p(6, nil)).To(Equal(9))
		Expect(p(15, nil)).To(Equal(15))
	})

	It("should complement the address for bitcomp", func() {
		p, err := NewPattern("bitcomp", mesh4x4)
		Expect(err).NotTo(HaveOccurred())

		Expect(p(0, nil)).To(Equal(15))
		Expect(p(5, nil)).To(Equal(10))
	})

	It("should step along every dimension for neighbor", func() {
		p, err := NewPattern("neighbor", mesh4x4)
		Expect(err).NotTo(HaveOccurred())

		Expect(p(0, nil)).To(Equal(5))
		Expect(p(3, nil)).To(Equal(4))
		Expect(p(15, nil)).To(Equal(0))
	})

	It("should use the next ID for neighbor on other topologies", func() {
		ring, err := topology.NewAnynet(map[int][]int{
			0: {1, 2},
			1: {0, 2},
			2: {0, 1},
		})
		Expect(err).NotTo(HaveOccurred())

		p, err := NewPattern("neighbor", ring)
		Expect(err).NotTo(HaveOccurred())

		Expect(p(0, nil)).To(Equal(1))
		Expect(p(2, nil)).To(Equal(0))
	})

	It("should reject transpose with an odd number of address bits", func() {
		cube, err := topology.NewKNCube(2, 3, false)
		Expect(err).NotTo(HaveOccurred())

		_, err = NewPattern("transpose", cube)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should reject bitcomp on non-power-of-two networks", func() {
		mesh3x3, err := topology.NewKNCube(3, 2, false)
		Expect(err).NotTo(HaveOccurred())

		_, err = NewPattern("bitcomp", mesh3x3)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should reject unknown patterns", func() {
		_, err := NewPattern("tornado", mesh4x4)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})
})
