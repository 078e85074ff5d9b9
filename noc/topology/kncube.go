package topology

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/config"
)

// KNCube is a k-ary n-dimensional mesh or torus. Output port 2d moves in the
// positive direction of dimension d, port 2d+1 in the negative direction and
// port 2n is the local port. A link leaves through port p and arrives on input
// port p of the neighbor.
type KNCube struct {
	K, N  int
	Torus bool

	numNodes int
}

// NewKNCube creates a k-ary n-cube.
func NewKNCube(k, n int, torus bool) (*KNCube, error) {
	if k < 2 || n < 1 {
		return nil, fmt.Errorf("%w: k-ary n-cube needs k >= 2 and n >= 1, "+
			"got k=%d n=%d", config.ErrInvalidValue, k, n)
	}

	nodes := 1
	for i := 0; i < n; i++ {
		nodes *= k
	}

	return &KNCube{K: k, N: n, Torus: torus, numNodes: nodes}, nil
}

// NumNodes returns k^n.
func (t *KNCube) NumNodes() int {
	return t.numNodes
}

// NumPorts returns 2n+1 for every router.
func (t *KNCube) NumPorts(_ int) int {
	return 2*t.N + 1
}

// LocalPort returns 2n.
func (t *KNCube) LocalPort(_ int) int {
	return 2 * t.N
}

// Coord returns the position of node along dimension dim.
func (t *KNCube) Coord(node, dim int) int {
	for i := 0; i < dim; i++ {
		node /= t.K
	}

	return node % t.K
}

// Neighbor implements Topology.
func (t *KNCube) Neighbor(node, port int) (neighbor, inPort int, ok bool) {
	if port < 0 || port >= 2*t.N {
		return 0, 0, false
	}

	dim := port / 2
	step := 1
	if port%2 == 1 {
		step = -1
	}

	c := t.Coord(node, dim) + step
	if c < 0 || c >= t.K {
		if !t.Torus {
			return 0, 0, false
		}

		c = (c + t.K) % t.K
	}

	stride := 1
	for i := 0; i < dim; i++ {
		stride *= t.K
	}

	neighbor = node + (c-t.Coord(node, dim))*stride

	return neighbor, port, true
}
