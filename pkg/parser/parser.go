// Package parser owns the live module instances of one analysis run and
// drives events through them.
//
// Modules are constructed in resolution order, so a constructor can hold on
// to its dependencies. Dispatch is a single sequential pass: every event is
// offered to every module, dependencies first, before the next event is
// looked at. Nothing here is goroutine-safe; a Parser belongs to one run.
package parser

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
)

var (
	// ErrAlreadyParsed indicates a second call to ParseEvents.
	ErrAlreadyParsed = errors.New("events already parsed")
	// ErrNotParsed indicates results were requested before dispatch finished.
	ErrNotParsed = errors.New("events not parsed")
)

// Finisher is implemented by modules that need to close open state once the
// last event has been dispatched, e.g. a window still running at fight end.
// Finish is called in resolution order, after the final event.
type Finisher interface {
	Finish()
}

// Parser holds one run's context and its constructed modules.
type Parser struct {
	Report *model.Report
	Fight  *model.Fight
	Player *model.Combatant

	ids     []string
	modules []module.Module
	index   map[string]int
	parsed  bool
	events  int
	logger  *zap.Logger
}

// New constructs every descriptor in order. ordered must already be
// resolved: each descriptor's dependencies must come before it. A
// dependency that has not been constructed yet is a *module.ConfigError.
func New(report *model.Report, fight *model.Fight, player *model.Combatant, ordered []module.Descriptor, logger *zap.Logger) (*Parser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{
		Report:  report,
		Fight:   fight,
		Player:  player,
		ids:     make([]string, 0, len(ordered)),
		modules: make([]module.Module, 0, len(ordered)),
		index:   make(map[string]int, len(ordered)),
		logger:  logger.Named("parser"),
	}
	for _, d := range ordered {
		if _, dup := p.index[d.ID]; dup {
			return nil, &module.ConfigError{Err: fmt.Errorf("module %q constructed twice", d.ID)}
		}
		deps := make(map[string]module.Module, len(d.Deps))
		for _, id := range d.Deps {
			i, ok := p.index[id]
			if !ok {
				return nil, &module.ConfigError{Err: fmt.Errorf("module %q needs %q, which is not constructed before it", d.ID, id)}
			}
			deps[id] = p.modules[i]
		}
		m, err := d.New(module.NewContext(report, fight, player, d.ID, deps))
		if err != nil {
			return nil, &module.ConfigError{Err: fmt.Errorf("construct module %q: %w", d.ID, err)}
		}
		if m == nil {
			return nil, &module.ConfigError{Err: fmt.Errorf("construct module %q: constructor returned nil", d.ID)}
		}
		p.index[d.ID] = len(p.modules)
		p.ids = append(p.ids, d.ID)
		p.modules = append(p.modules, m)
	}
	p.logger.Debug("modules constructed", zap.Strings("order", p.ids))
	return p, nil
}

// Modules returns the module IDs in resolution order.
func (p *Parser) Modules() []string {
	return append([]string(nil), p.ids...)
}

// Module returns the constructed module with the given ID.
func (p *Parser) Module(id string) (module.Module, bool) {
	i, ok := p.index[id]
	if !ok {
		return nil, false
	}
	return p.modules[i], true
}

// Parsed reports whether ParseEvents has completed.
func (p *Parser) Parsed() bool { return p.parsed }

// EventCount returns the number of events dispatched.
func (p *Parser) EventCount() int { return p.events }

// ParseEvents dispatches events, in order, to every module in resolution
// order, then lets Finishers close their state. It may be called once.
func (p *Parser) ParseEvents(events []model.Event) error {
	if p.parsed {
		return ErrAlreadyParsed
	}
	for _, e := range events {
		for _, m := range p.modules {
			m.HandleEvent(e)
		}
	}
	for _, m := range p.modules {
		if f, ok := m.(Finisher); ok {
			f.Finish()
		}
	}
	p.events = len(events)
	p.parsed = true
	p.logger.Debug("events parsed", zap.Int("events", len(events)), zap.Int("modules", len(p.modules)))
	return nil
}

// GenerateResults collects every module's output in resolution order,
// keeping each module's own ordering. Every result is attributed to the
// module that produced it, whatever Module it claims.
func (p *Parser) GenerateResults() ([]model.Result, error) {
	if !p.parsed {
		return nil, ErrNotParsed
	}
	var results []model.Result
	for i, m := range p.modules {
		for _, r := range m.Output() {
			r.Module = p.ids[i]
			results = append(results, r)
		}
	}
	return results, nil
}
