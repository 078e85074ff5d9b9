package topology

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nocsim/noc/config"
)

var _ = Describe("KNCube", func() {
	It("should reject degenerate shapes", func() {
		_, err := NewKNCube(1, 2, false)
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should number ports per dimension", func() {
		mesh, err := NewKNCube(4, 2, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(mesh.NumNodes()).To(Equal(16))
		Expect(mesh.NumPorts(0)).To(Equal(5))
		Expect(mesh.LocalPort(7)).To(Equal(4))
		Expect(mesh.Coord(6, 0)).To(Equal(2))
		Expect(mesh.Coord(6, 1)).To(Equal(1))
	})

	It("should leave mesh boundaries unconnected", func() {
		mesh, _ := NewKNCube(4, 2, false)

		nb, in, ok := mesh.Neighbor(5, 0)
		Expect(ok).To(BeTrue())
		Expect(nb).To(Equal(6))
		Expect(in).To(Equal(0))

		nb, _, ok = mesh.Neighbor(5, 3)
		Expect(ok).To(BeTrue())
		Expect(nb).To(Equal(1))

		_, _, ok = mesh.Neighbor(3, 0)
		Expect(ok).To(BeFalse())

		_, _, ok = mesh.Neighbor(3, 4)
		Expect(ok).To(BeFalse())
	})

	It("should wrap around in a torus", func() {
		torus, _ := NewKNCube(4, 2, true)

		nb, _, ok := torus.Neighbor(3, 0)
		Expect(ok).To(BeTrue())
		Expect(nb).To(Equal(0))

		nb, _, ok = torus.Neighbor(1, 3)
		Expect(ok).To(BeTrue())
		Expect(nb).To(Equal(13))
	})
})

var _ = Describe("Anynet", func() {
	It("should compute next ports", func() {
		net, err := NewAnynet(map[int][]int{
			0: {1},
			1: {0, 2},
			2: {1},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(net.NumPorts(1)).To(Equal(3))
		Expect(net.LocalPort(0)).To(Equal(1))
		Expect(net.NextPort(0, 2)).To(Equal(0))
		Expect(net.NextPort(2, 0)).To(Equal(0))
		Expect(net.NextPort(1, 2)).To(Equal(1))
		Expect(net.NextPort(1, 1)).To(Equal(2))

		nb, in, ok := net.Neighbor(1, 1)
		Expect(ok).To(BeTrue())
		Expect(nb).To(Equal(2))
		Expect(in).To(Equal(0))
	})

	It("should reject one-sided links", func() {
		_, err := NewAnynet(map[int][]int{0: {1}, 1: {}})
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should reject disconnected graphs", func() {
		_, err := NewAnynet(map[int][]int{0: {1}, 1: {0}, 2: {}})
		Expect(err).To(MatchError(config.ErrInvalidValue))
	})

	It("should load from a file and through the config", func() {
		file := filepath.Join(GinkgoT().TempDir(), "line.yaml")
		Expect(os.WriteFile(file,
			[]byte("routers:\n  0: [1]\n  1: [0]\n"), 0o644)).To(Succeed())

		cfg := config.Defaults()
		cfg.Set("topology", "anynet")
		cfg.Set("network_file", file)

		topo, err := FromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.NumNodes()).To(Equal(2))
	})

	It("should report a missing file", func() {
		_, err := LoadAnynet("/nonexistent/anynet.yaml")
		Expect(err).To(HaveOccurred())
	})
})
