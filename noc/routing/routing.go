// Package routing provides the routing functions that tell a router which
// outputs and virtual channels a packet may take next.
package routing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/topology"
)

// A Candidate is an output port together with the inclusive range of
// virtual channels that the packet may use on it.
type Candidate struct {
	Port    int
	VCStart int
	VCEnd   int
}

// Context is the view of the router that a routing function needs.
type Context interface {
	ID() int
	IsOutputFaulty(output int) bool
}

// Func returns the candidates of a head flit that arrived on inPort, in the
// order of preference.
type Func func(ctx Context, f *messaging.Flit, inPort int) []Candidate

// A Builder creates a routing function for a topology.
type Builder func(topo topology.Topology, numVCs int) (Func, error)

var registry = struct {
	sync.Mutex
	builders map[string]Builder
}{builders: make(map[string]Builder)}

// Register makes a routing function available under topology + "_" +
// routing_function. Registering a name twice panics.
func Register(name string, b Builder) {
	registry.Lock()
	defer registry.Unlock()

	if _, found := registry.builders[name]; found {
		panic(fmt.Sprintf("routing function %s already registered", name))
	}

	registry.builders[name] = b
}

// Names lists the registered routing functions.
func Names() []string {
	registry.Lock()
	defer registry.Unlock()

	names := make([]string, 0, len(registry.builders))
	for name := range registry.builders {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// New creates the routing function selected by the "topology" and
// "routing_function" keys.
func New(cfg config.Source) (Func, error) {
	topoName, err := cfg.GetStr("topology")
	if err != nil {
		return nil, err
	}

	fnName, err := cfg.GetStr("routing_function")
	if err != nil {
		return nil, err
	}

	numVCs, err := cfg.GetInt("num_vcs")
	if err != nil {
		return nil, err
	}

	if numVCs < 1 {
		return nil, fmt.Errorf("%w: num_vcs must be at least 1, got %d",
			config.ErrInvalidValue, numVCs)
	}

	name := topoName + "_" + fnName

	registry.Lock()
	b, found := registry.builders[name]
	registry.Unlock()

	if !found {
		return nil, fmt.Errorf("%w: unknown routing function %s",
			config.ErrInvalidValue, name)
	}

	topo, err := topology.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return b(topo, numVCs)
}

func init() {
	Register("mesh_dor", newDOR)
	Register("torus_dor", newDOR)
	Register("mesh_min_adaptive", newMinAdaptive)
	Register("anynet_table", newTable)
}
