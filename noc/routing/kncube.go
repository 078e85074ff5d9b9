package routing

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/topology"
)

func kncubeMustBeGiven(topo topology.Topology) (*topology.KNCube, error) {
	cube, ok := topo.(*topology.KNCube)
	if !ok {
		return nil, fmt.Errorf("%w: routing function needs a k-ary n-cube",
			config.ErrInvalidValue)
	}

	return cube, nil
}

// dorHop returns the dimension-order output of cur toward dest and whether
// the rest of the path in that dimension still crosses a wraparound link.
// ok is false if cur is dest.
func dorHop(t *topology.KNCube, cur, dest int) (port int, wraps, ok bool) {
	for dim := 0; dim < t.N; dim++ {
		c := t.Coord(cur, dim)
		d := t.Coord(dest, dim)

		if c == d {
			continue
		}

		if !t.Torus {
			if d > c {
				return 2 * dim, false, true
			}

			return 2*dim + 1, false, true
		}

		forward := (d - c + t.K) % t.K
		if forward <= t.K-forward {
			return 2 * dim, d < c, true
		}

		return 2*dim + 1, d > c, true
	}

	return 0, false, false
}

func newDOR(topo topology.Topology, numVCs int) (Func, error) {
	cube, err := kncubeMustBeGiven(topo)
	if err != nil {
		return nil, err
	}

	if cube.Torus && numVCs < 2 {
		return nil, fmt.Errorf("%w: dor on a torus needs at least 2 "+
			"virtual channels for the dateline classes",
			config.ErrInvalidValue)
	}

	half := numVCs / 2

	return func(ctx Context, f *messaging.Flit, _ int) []Candidate {
		port, wraps, ok := dorHop(cube, ctx.ID(), f.Dest)
		if !ok {
			return []Candidate{{cube.LocalPort(ctx.ID()), 0, numVCs - 1}}
		}

		if !cube.Torus {
			return []Candidate{{port, 0, numVCs - 1}}
		}

		if wraps {
			return []Candidate{{port, 0, half - 1}}
		}

		return []Candidate{{port, half, numVCs - 1}}
	}, nil
}

// newMinAdaptive routes on any productive direction of a mesh. VC 0 is the
// escape channel and only follows the dimension-order path.
func newMinAdaptive(topo topology.Topology, numVCs int) (Func, error) {
	cube, err := kncubeMustBeGiven(topo)
	if err != nil {
		return nil, err
	}

	if cube.Torus {
		return nil, fmt.Errorf("%w: min_adaptive only supports meshes",
			config.ErrInvalidValue)
	}

	if numVCs < 2 {
		return nil, fmt.Errorf("%w: min_adaptive needs at least 2 "+
			"virtual channels", config.ErrInvalidValue)
	}

	return func(ctx Context, f *messaging.Flit, _ int) []Candidate {
		cur := ctx.ID()

		escape, _, ok := dorHop(cube, cur, f.Dest)
		if !ok {
			return []Candidate{{cube.LocalPort(cur), 0, numVCs - 1}}
		}

		var candidates []Candidate

		for dim := 0; dim < cube.N; dim++ {
			c := cube.Coord(cur, dim)
			d := cube.Coord(f.Dest, dim)

			port := 2 * dim
			switch {
			case d == c:
				continue
			case d < c:
				port++
			}

			if ctx.IsOutputFaulty(port) {
				continue
			}

			candidates = append(candidates, Candidate{port, 1, numVCs - 1})
		}

		return append(candidates, Candidate{escape, 0, 0})
	}, nil
}
