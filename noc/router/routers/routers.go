// Package routers registers every switching strategy of the simulator.
package routers

import (
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/noc/router/chaos"
	"github.com/sarchlab/nocsim/noc/router/event"
	"github.com/sarchlab/nocsim/noc/router/iq"
)

// NewDefaultFactory returns a factory that knows the iq, iq_combined,
// iq_split, event and chaos routers.
func NewDefaultFactory() *router.Factory {
	f := router.NewFactory()

	f.Register("iq", iq.New)
	f.Register("iq_combined", iq.NewCombined)
	f.Register("iq_split", iq.NewSplit)
	f.Register("event", event.New)
	f.Register("chaos", chaos.New)

	return f
}
