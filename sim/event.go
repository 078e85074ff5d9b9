package sim

// VTimeInSec is simulated time in seconds.
type VTimeInSec float64

// An Event is a piece of work that a Handler performs at a given time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary tells if the event waits for every primary event of the
	// same time to be handled first.
	IsSecondary() bool
}

// EventBase carries the fields shared by all events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event for handler at time t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary tells if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler performs the events scheduled for it. An event may only change
// the state of its own handler.
type Handler interface {
	Handle(e Event) error
}
