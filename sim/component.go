package sim

// A Component is an element that is being simulated and that receives events
// from the engine.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase provides the name and hook support that most components need.
type ComponentBase struct {
	HookableBase

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
