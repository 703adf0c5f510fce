// Package module defines analysis modules and how they are grouped, looked
// up and ordered.
//
// A Module is constructed fresh for every analysis run from a Descriptor.
// Descriptors declare the IDs of the modules they depend on; the resolver
// orders descriptors so that dependencies are constructed, and later see
// every event, before their dependents. A module's constructor receives a
// Context through which it may reach exactly those dependencies.
package module

import (
	"fmt"

	"github.com/daviddao/xivlens/pkg/model"
)

// Module is one unit of analysis logic scoped to a single run.
type Module interface {
	// HandleEvent updates the module's state from one event. Events arrive
	// in report order, and dependencies have already handled the same event.
	HandleEvent(e model.Event)
	// Output returns the module's findings. It is called once, after every
	// event has been handled, and must only read accumulated state.
	Output() []model.Result
}

// Constructor builds a module instance for one run.
type Constructor func(ctx *Context) (Module, error)

// Descriptor names a module, its dependencies, and how to build it.
type Descriptor struct {
	ID   string
	Deps []string
	New  Constructor
}

// Context is what a module constructor sees: the run's report, fight and
// combatant, plus handles to its declared dependencies.
type Context struct {
	Report    *model.Report
	Fight     *model.Fight
	Combatant *model.Combatant

	id   string
	deps map[string]Module
}

// NewContext returns a constructor context for module id. deps must hold
// exactly the already-constructed declared dependencies.
func NewContext(report *model.Report, fight *model.Fight, combatant *model.Combatant, id string, deps map[string]Module) *Context {
	return &Context{Report: report, Fight: fight, Combatant: combatant, id: id, deps: deps}
}

// ID returns the ID of the module being constructed.
func (c *Context) ID() string { return c.id }

// Dep returns the dependency with the given ID. Only IDs declared in the
// module's Descriptor are reachable.
func (c *Context) Dep(id string) (Module, error) {
	m, ok := c.deps[id]
	if !ok {
		return nil, fmt.Errorf("module %q: %q is not a declared dependency", c.id, id)
	}
	return m, nil
}

// Dep returns dependency id from ctx asserted to type T.
func Dep[T Module](ctx *Context, id string) (T, error) {
	var zero T
	m, err := ctx.Dep(id)
	if err != nil {
		return zero, err
	}
	t, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("module %q: dependency %q is %T, not %T", ctx.id, id, m, zero)
	}
	return t, nil
}
