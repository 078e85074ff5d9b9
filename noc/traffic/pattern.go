package traffic

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/topology"
)

// Rand is a source of uniform random numbers in [0, 1).
type Rand interface {
	RandU01() float64
}

// A Pattern picks the destination terminal of a packet created at src.
type Pattern func(src int, rng Rand) int

// PatternNames lists the traffic patterns that NewPattern accepts.
func PatternNames() []string {
	names := []string{"uniform", "transpose", "bitcomp", "neighbor"}
	sort.Strings(names)

	return names
}

// NewPattern creates the pattern called name for the nodes of topo.
func NewPattern(name string, topo topology.Topology) (Pattern, error) {
	numNodes := topo.NumNodes()

	switch name {
	case "uniform":
		return uniform(numNodes), nil
	case "transpose":
		return transpose(numNodes)
	case "bitcomp":
		return bitcomp(numNodes)
	case "neighbor":
		return neighbor(topo), nil
	default:
		return nil, fmt.Errorf("%w: unknown traffic pattern %q",
			config.ErrInvalidValue, name)
	}
}

func uniform(numNodes int) Pattern {
	return func(_ int, rng Rand) int {
		return randIndex(rng, numNodes)
	}
}

func randIndex(rng Rand, n int) int {
	i := int(rng.RandU01() * float64(n))
	if i >= n {
		i = n - 1
	}

	return i
}

func addressBits(numNodes int, pattern string) (int, error) {
	if numNodes < 2 || numNodes&(numNodes-1) != 0 {
		return 0, fmt.Errorf(
			"%w: %s traffic needs a power-of-two node count, got %d",
			config.ErrInvalidValue, pattern, numNodes)
	}

	return bits.TrailingZeros(uint(numNodes)), nil
}

// transpose swaps the upper and lower halves of the node address.
func transpose(numNodes int) (Pattern, error) {
	width, err := addressBits(numNodes, "transpose")
	if err != nil {
		return nil, err
	}

	if width%2 != 0 {
		return nil, fmt.Errorf(
			"%w: transpose traffic needs an even number of address bits, "+
				"got %d nodes", config.ErrInvalidValue, numNodes)
	}

	shift := width / 2
	lowMask := (1 << shift) - 1

	return func(src int, _ Rand) int {
		return (src>>shift)&lowMask | (src&lowMask)<<shift
	}, nil
}

// bitcomp sends to the node whose address is the complement of the source.
func bitcomp(numNodes int) (Pattern, error) {
	_, err := addressBits(numNodes, "bitcomp")
	if err != nil {
		return nil, err
	}

	mask := numNodes - 1

	return func(src int, _ Rand) int {
		return ^src & mask
	}, nil
}

// neighbor sends one step further along every dimension of a k-ary n-cube,
// wrapping at the edge. Other topologies send to the next node ID.
func neighbor(topo topology.Topology) Pattern {
	cube, ok := topo.(*topology.KNCube)
	if !ok {
		numNodes := topo.NumNodes()

		return func(src int, _ Rand) int {
			return (src + 1) % numNodes
		}
	}

	return func(src int, _ Rand) int {
		dest := 0
		stride := 1

		for d := 0; d < cube.N; d++ {
			c := (cube.Coord(src, d) + 1) % cube.K
			dest += c * stride
			stride *= cube.K
		}

		return dest
	}
}
