// Package topology describes how routers are connected: the number of ports
// each router has, which port leads to which neighbor, and where the
// terminals attach.
package topology

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/config"
)

// A Topology maps router output ports to neighbor routers. Every router has
// one terminal attached at its local port, and terminal i attaches to
// router i.
type Topology interface {
	NumNodes() int
	NumPorts(node int) int
	LocalPort(node int) int

	// Neighbor returns the router that output port of node leads to and the
	// input port the link arrives at. ok is false for unconnected ports.
	Neighbor(node, port int) (neighbor, inPort int, ok bool)
}

// FromConfig builds the topology named by the "topology" key.
func FromConfig(cfg config.Source) (Topology, error) {
	name, err := cfg.GetStr("topology")
	if err != nil {
		return nil, err
	}

	switch name {
	case "mesh", "torus":
		k, err := cfg.GetInt("k")
		if err != nil {
			return nil, err
		}

		n, err := cfg.GetInt("n")
		if err != nil {
			return nil, err
		}

		cube, err := NewKNCube(k, n, name == "torus")
		if err != nil {
			return nil, err
		}

		return cube, nil
	case "anynet":
		path, err := cfg.GetStr("network_file")
		if err != nil {
			return nil, err
		}

		a, err := LoadAnynet(path)
		if err != nil {
			return nil, err
		}

		return a, nil
	default:
		return nil, fmt.Errorf("%w: unknown topology %s",
			config.ErrInvalidValue, name)
	}
}
