package common

import (
	"fmt"
	"sort"
	"strings"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
)

// Casts records every completed cast by the analysed combatant.
type Casts struct {
	player int
	casts  []model.Event
	names  map[int]string
}

// NewCasts is the Constructor for CastsID.
func NewCasts(ctx *module.Context) (module.Module, error) {
	return &Casts{player: ctx.Combatant.ID, names: map[int]string{}}, nil
}

func (c *Casts) HandleEvent(e model.Event) {
	if e.Type != model.EventCast || e.SourceID != c.player || e.Ability == nil {
		return
	}
	c.casts = append(c.casts, e)
	if e.Ability.Name != "" {
		c.names[e.Ability.GUID] = e.Ability.Name
	}
}

// All returns the casts in order.
func (c *Casts) All() []model.Event { return c.casts }

// Of returns the casts of the given abilities, in order.
func (c *Casts) Of(guids ...int) []model.Event {
	want := make(map[int]bool, len(guids))
	for _, g := range guids {
		want[g] = true
	}
	var out []model.Event
	for _, e := range c.casts {
		if want[e.AbilityID()] {
			out = append(out, e)
		}
	}
	return out
}

// Between returns the casts of the given abilities with start <= ts < end.
func (c *Casts) Between(start, end int64, guids ...int) []model.Event {
	var out []model.Event
	for _, e := range c.Of(guids...) {
		if e.Timestamp >= start && e.Timestamp < end {
			out = append(out, e)
		}
	}
	return out
}

// Name returns the display name seen for guid, or its number.
func (c *Casts) Name(guid int) string {
	if n, ok := c.names[guid]; ok {
		return n
	}
	return fmt.Sprintf("#%d", guid)
}

// CastCount is one row of the cast summary.
type CastCount struct {
	Ability int    `json:"ability"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// CastSummary is the Casts output content.
type CastSummary []CastCount

func (s CastSummary) String() string {
	if len(s) == 0 {
		return "no casts"
	}
	var b strings.Builder
	for _, row := range s {
		fmt.Fprintf(&b, "%5d  %s\n", row.Count, row.Name)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (c *Casts) Output() []model.Result {
	counts := map[int]int{}
	for _, e := range c.casts {
		counts[e.AbilityID()]++
	}
	summary := make(CastSummary, 0, len(counts))
	for guid, n := range counts {
		summary = append(summary, CastCount{Ability: guid, Name: c.Name(guid), Count: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Ability < summary[j].Ability
	})
	return []model.Result{{Name: "Casts", Content: summary}}
}
