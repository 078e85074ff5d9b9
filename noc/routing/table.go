package routing

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/topology"
)

// newTable follows the precomputed shortest paths of an anynet.
func newTable(topo topology.Topology, numVCs int) (Func, error) {
	net, ok := topo.(*topology.Anynet)
	if !ok {
		return nil, fmt.Errorf("%w: table routing needs an anynet",
			config.ErrInvalidValue)
	}

	return func(ctx Context, f *messaging.Flit, _ int) []Candidate {
		port := net.NextPort(ctx.ID(), f.Dest)
		return []Candidate{{port, 0, numVCs - 1}}
	}, nil
}
