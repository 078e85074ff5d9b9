package sim

// TimeTeller reports the time of the event being handled.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events to handle later.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler runs once the simulation is over, for example to
// flush recorded results.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// SimulationEndHandlerFunc adapts a plain function to SimulationEndHandler.
type SimulationEndHandlerFunc func(now VTimeInSec)

// Handle calls f(now).
func (f SimulationEndHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}

// An Engine handles scheduled events in time order.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run handles events until none is left or a handler fails.
	Run() error

	// RegisterSimulationEndHandler adds a handler for Finished to call.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the end handlers in registration order. The caller
	// decides when the simulation is over, which can be after work done
	// outside of Run.
	Finished()
}
