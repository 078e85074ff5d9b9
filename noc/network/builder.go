package network

import (
	"fmt"

	"github.com/sarchlab/nocsim/datarecording"
	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/topology"
	"github.com/sarchlab/nocsim/noc/traffic"
	"github.com/sarchlab/nocsim/sim"
)

// Build creates the network named by the "topology" key. A nil recorder
// disables packet recording. Any configuration error is returned before the
// first cycle.
func Build(
	cfg config.Source,
	factory *router.Factory,
	recorder datarecording.DataRecorder,
) (*Network, error) {
	name, err := cfg.GetStr("topology")
	if err != nil {
		return nil, err
	}

	switch name {
	case "mesh", "torus":
		return BuildKNCube(cfg, factory, recorder)
	case "anynet":
		return BuildAnynet(cfg, factory, recorder)
	default:
		return nil, fmt.Errorf("%w: unknown topology %s",
			config.ErrInvalidValue, name)
	}
}

// BuildKNCube creates a mesh or a torus of k^n routers.
func BuildKNCube(
	cfg config.Source,
	factory *router.Factory,
	recorder datarecording.DataRecorder,
) (*Network, error) {
	topo, err := topology.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if _, ok := topo.(*topology.KNCube); !ok {
		return nil, fmt.Errorf("%w: topology is not a mesh or a torus",
			config.ErrInvalidValue)
	}

	return build(cfg, topo, factory, recorder)
}

// BuildAnynet creates a network from the router graph in "network_file".
func BuildAnynet(
	cfg config.Source,
	factory *router.Factory,
	recorder datarecording.DataRecorder,
) (*Network, error) {
	topo, err := topology.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if _, ok := topo.(*topology.Anynet); !ok {
		return nil, fmt.Errorf("%w: topology is not an anynet",
			config.ErrInvalidValue)
	}

	return build(cfg, topo, factory, recorder)
}

type linkLatency struct {
	flit, credit int
}

func readLatency(cfg config.Source) (linkLatency, error) {
	flit, err := cfg.GetInt("channel_latency")
	if err != nil {
		return linkLatency{}, err
	}

	credit, err := cfg.GetInt("credit_latency")
	if err != nil {
		return linkLatency{}, err
	}

	if flit < 1 || credit < 1 {
		return linkLatency{}, fmt.Errorf(
			"%w: channel and credit latency must be at least 1, got %d/%d",
			config.ErrInvalidValue, flit, credit)
	}

	return linkLatency{flit: flit, credit: credit}, nil
}

type portPair struct {
	flit   *channel.FlitChannel
	credit *channel.CreditChannel
}

type wiring struct {
	n       *Network
	latency linkLatency

	inputs  [][]portPair
	outputs [][]portPair
}

func build(
	cfg config.Source,
	topo topology.Topology,
	factory *router.Factory,
	recorder datarecording.DataRecorder,
) (*Network, error) {
	latency, err := readLatency(cfg)
	if err != nil {
		return nil, err
	}

	seedName, err := cfg.GetStr("seed_name")
	if err != nil {
		return nil, err
	}

	traffic.SeedStreams(seedName)

	n := &Network{name: "Network", topo: topo}

	err = n.createRouters(cfg, factory)
	if err != nil {
		return nil, err
	}

	err = n.createTerminals(cfg, recorder)
	if err != nil {
		return nil, err
	}

	w := &wiring{n: n, latency: latency}
	w.connectLinks()
	w.connectTerminals()
	w.register()

	return n, nil
}

func (n *Network) createRouters(
	cfg config.Source,
	factory *router.Factory,
) error {
	for id := 0; id < n.topo.NumNodes(); id++ {
		ports := n.topo.NumPorts(id)
		name := fmt.Sprintf("Router[%d]", id)

		r, err := factory.Create(cfg, n, name, id, ports, ports)
		if err != nil {
			return err
		}

		n.routers = append(n.routers, r)
	}

	return nil
}

func (n *Network) createTerminals(
	cfg config.Source,
	recorder datarecording.DataRecorder,
) error {
	patternName, err := cfg.GetStr("traffic")
	if err != nil {
		return err
	}

	pattern, err := traffic.NewPattern(patternName, n.topo)
	if err != nil {
		return err
	}

	builder := traffic.MakeBuilder().
		WithConfig(cfg).
		WithNumNodes(n.topo.NumNodes()).
		WithPattern(pattern)

	if recorder != nil {
		traffic.CreatePacketTable(recorder)
		builder = builder.WithRecorder(recorder)
	}

	for id := 0; id < n.topo.NumNodes(); id++ {
		name := sim.BuildNameWithIndex(n.name, "Terminal", id)

		t, err := builder.Build(name, id)
		if err != nil {
			return err
		}

		n.terminals = append(n.terminals, t)
	}

	return nil
}

func (w *wiring) newPair(
	elem string,
	flitLatency, creditLatency int,
	indices ...int,
) portPair {
	suffix := ""
	for _, i := range indices {
		suffix += fmt.Sprintf("[%d]", i)
	}

	p := portPair{
		flit: channel.NewFlitChannel(
			sim.BuildName(w.n.name, elem+suffix), flitLatency),
		credit: channel.NewCreditChannel(
			sim.BuildName(w.n.name, elem+"Credit"+suffix), creditLatency),
	}

	w.n.flitChannels = append(w.n.flitChannels, p.flit)
	w.n.creditChannels = append(w.n.creditChannels, p.credit)

	return p
}

// connectLinks creates one channel pair per router output. The pair of a
// connected output is also the input pair of the neighbor.
func (w *wiring) connectLinks() {
	topo := w.n.topo
	numNodes := topo.NumNodes()

	w.inputs = make([][]portPair, numNodes)
	w.outputs = make([][]portPair, numNodes)

	for id := 0; id < numNodes; id++ {
		w.inputs[id] = make([]portPair, topo.NumPorts(id))
		w.outputs[id] = make([]portPair, topo.NumPorts(id))
	}

	for id := 0; id < numNodes; id++ {
		for port := 0; port < topo.NumPorts(id); port++ {
			if port == topo.LocalPort(id) {
				continue
			}

			pair := w.newPair("Link",
				w.latency.flit, w.latency.credit, id, port)
			w.outputs[id][port] = pair

			next, inPort, ok := topo.Neighbor(id, port)
			if ok {
				w.inputs[next][inPort] = pair
			}
		}
	}

	for id := 0; id < numNodes; id++ {
		for port := range w.inputs[id] {
			if port == topo.LocalPort(id) || w.inputs[id][port].flit != nil {
				continue
			}

			w.inputs[id][port] = w.newPair("Unconnected",
				w.latency.flit, w.latency.credit, id, port)
		}
	}
}

// connectTerminals attaches terminal i to the local port of router i with
// single-cycle channels.
func (w *wiring) connectTerminals() {
	for id, t := range w.n.terminals {
		local := w.n.topo.LocalPort(id)

		inject := w.newPair("Inject", 1, 1, id)
		t.ConnectInject(inject.flit, inject.credit)
		w.inputs[id][local] = inject

		eject := w.newPair("Eject", 1, 1, id)
		t.ConnectEject(eject.flit, eject.credit)
		w.outputs[id][local] = eject
	}
}

func (w *wiring) register() {
	for id, r := range w.n.routers {
		for _, p := range w.inputs[id] {
			r.RegisterInput(p.flit, p.credit)
		}

		for _, p := range w.outputs[id] {
			r.RegisterOutput(p.flit, p.credit)
		}

		r.WiringMustBeComplete()
	}
}
