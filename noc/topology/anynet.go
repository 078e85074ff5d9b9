package topology

import (
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/sarchlab/nocsim/noc/config"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gopkg.in/yaml.v3"
)

// Anynet is an arbitrary router graph read from a file. Output port i of a
// router leads to the i-th entry of its neighbor list; the port after the
// last neighbor is the local port.
type Anynet struct {
	adjacency [][]int

	// nextPort[src][dst] is the output port of src on a shortest path to dst.
	nextPort [][]int
}

type anynetFile struct {
	Routers map[int][]int `yaml:"routers"`
}

var anynetCache = struct {
	sync.Mutex
	byPath map[string]*Anynet
}{byPath: make(map[string]*Anynet)}

// LoadAnynet reads an anynet YAML file. The file maps router IDs 0..N-1 to
// their neighbor lists:
//
//	routers:
//	  0: [1, 2]
//	  1: [0, 2]
//	  2: [0, 1]
//
// Links must be listed on both ends. Loaded files are cached by path.
func LoadAnynet(filename string) (*Anynet, error) {
	anynetCache.Lock()
	defer anynetCache.Unlock()

	if a, found := anynetCache.byPath[filename]; found {
		return a, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading anynet file: %w", err)
	}

	var f anynetFile

	err = yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("parsing anynet file %s: %w", filename, err)
	}

	a, err := NewAnynet(f.Routers)
	if err != nil {
		return nil, fmt.Errorf("anynet file %s: %w", filename, err)
	}

	anynetCache.byPath[filename] = a

	return a, nil
}

// NewAnynet creates an Anynet from neighbor lists and computes the shortest
// path port tables.
func NewAnynet(routers map[int][]int) (*Anynet, error) {
	n := len(routers)
	if n == 0 {
		return nil, fmt.Errorf("%w: anynet without routers",
			config.ErrInvalidValue)
	}

	a := &Anynet{adjacency: make([][]int, n)}

	for id, neighbors := range routers {
		if id < 0 || id >= n {
			return nil, fmt.Errorf("%w: router IDs must be 0..%d, got %d",
				config.ErrInvalidValue, n-1, id)
		}

		a.adjacency[id] = neighbors
	}

	err := a.linksMustBeSymmetric()
	if err != nil {
		return nil, err
	}

	err = a.buildRoutes()
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Anynet) linksMustBeSymmetric() error {
	for id, neighbors := range a.adjacency {
		seen := make(map[int]bool)

		for _, nb := range neighbors {
			if nb < 0 || nb >= len(a.adjacency) || nb == id {
				return fmt.Errorf("%w: router %d has invalid neighbor %d",
					config.ErrInvalidValue, id, nb)
			}

			if seen[nb] {
				return fmt.Errorf("%w: router %d lists neighbor %d twice",
					config.ErrInvalidValue, id, nb)
			}

			seen[nb] = true

			if a.portTo(nb, id) < 0 {
				return fmt.Errorf("%w: link %d-%d is only listed on one end",
					config.ErrInvalidValue, id, nb)
			}
		}
	}

	return nil
}

func (a *Anynet) portTo(from, to int) int {
	for i, nb := range a.adjacency[from] {
		if nb == to {
			return i
		}
	}

	return -1
}

func (a *Anynet) buildRoutes() error {
	g := simple.NewUndirectedGraph()
	for id := range a.adjacency {
		g.AddNode(simple.Node(id))
	}

	for id, neighbors := range a.adjacency {
		for _, nb := range neighbors {
			g.SetEdge(g.NewEdge(simple.Node(id), simple.Node(nb)))
		}
	}

	n := len(a.adjacency)
	a.nextPort = make([][]int, n)

	for src := 0; src < n; src++ {
		a.nextPort[src] = make([]int, n)
	}

	// Distances are unique even when paths are not, so the next hop is the
	// lowest numbered port whose neighbor is one step closer.
	for dst := 0; dst < n; dst++ {
		tree := path.DijkstraFrom(simple.Node(dst), g)

		for src := 0; src < n; src++ {
			if src == dst {
				a.nextPort[src][dst] = a.LocalPort(src)
				continue
			}

			dist := tree.WeightTo(int64(src))
			if math.IsInf(dist, 1) {
				return fmt.Errorf("%w: router %d cannot reach router %d",
					config.ErrInvalidValue, src, dst)
			}

			a.nextPort[src][dst] = -1

			for port, nb := range a.adjacency[src] {
				if tree.WeightTo(int64(nb)) == dist-1 {
					a.nextPort[src][dst] = port
					break
				}
			}
		}
	}

	return nil
}

// NumNodes returns the number of routers.
func (a *Anynet) NumNodes() int {
	return len(a.adjacency)
}

// NumPorts returns the number of neighbors plus the local port.
func (a *Anynet) NumPorts(node int) int {
	return len(a.adjacency[node]) + 1
}

// LocalPort returns the port after the last neighbor.
func (a *Anynet) LocalPort(node int) int {
	return len(a.adjacency[node])
}

// Neighbor implements Topology.
func (a *Anynet) Neighbor(node, port int) (neighbor, inPort int, ok bool) {
	if port < 0 || port >= len(a.adjacency[node]) {
		return 0, 0, false
	}

	neighbor = a.adjacency[node][port]

	return neighbor, a.portTo(neighbor, node), true
}

// NextPort returns the output port of src on a shortest path to dst. Among
// equally short paths the lowest numbered port wins.
func (a *Anynet) NextPort(src, dst int) int {
	return a.nextPort[src][dst]
}

// Neighbors returns the sorted neighbor IDs of node.
func (a *Anynet) Neighbors(node int) []int {
	nbs := append([]int(nil), a.adjacency[node]...)
	sort.Ints(nbs)

	return nbs
}
