package router

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/sim"
)

// ErrUnknownRouter is returned when the configured router type has no
// registered constructor.
var ErrUnknownRouter = errors.New("unknown router type")

// A Constructor creates a router of one switching strategy.
type Constructor func(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (Router, error)

// A Factory maps router type names to constructors.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates an empty Factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a router type. Registering the same name twice panics.
func (f *Factory) Register(name string, ctor Constructor) {
	if _, found := f.constructors[name]; found {
		log.Panicf("router type %s is already registered", name)
	}

	f.constructors[name] = ctor
}

// Names returns the registered router types in sorted order.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.constructors))
	for n := range f.constructors {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Create builds the router type named by the "router" key. Both "router" and
// "topology" must be configured. An unknown router type produces no router,
// a diagnostic line and an error wrapping ErrUnknownRouter. Callers must not
// start the simulation when Create fails.
func (f *Factory) Create(
	cfg config.Source,
	parent sim.Named,
	name string,
	id, inputs, outputs int,
) (Router, error) {
	routerType, err := cfg.GetStr("router")
	if err != nil {
		return nil, err
	}

	_, err = cfg.GetStr("topology")
	if err != nil {
		return nil, err
	}

	ctor, found := f.constructors[routerType]
	if !found {
		log.Printf("Unknown router type %s", routerType)
		return nil, fmt.Errorf("%w: %s", ErrUnknownRouter, routerType)
	}

	r, err := ctor(cfg, parent, name, id, inputs, outputs)
	if err != nil {
		return nil, fmt.Errorf("creating %s router: %w", routerType, err)
	}

	return r, nil
}
