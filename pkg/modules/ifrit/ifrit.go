// Package ifrit holds the Ifrit encounter bundle.
package ifrit

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules/common"
)

// Boss is the encounter key this bundle applies to.
const Boss = "ifrit"

// Encounter is Ifrit's FFLogs encounter id, the form fights carry in reports.
const Encounter = "1045"

// PhasesID is the module ID of the phase tracker.
const PhasesID = "ifritphases"

// Bundle returns the encounter modules.
func Bundle() *module.Bundle {
	return &module.Bundle{
		Name:    Boss,
		Modules: []module.Descriptor{{ID: PhasesID, New: newPhases}},
	}
}

// Phase is one targetable stretch of the fight.
type Phase struct {
	Number int   `json:"number"`
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
}

// phases splits the fight on Ifrit's untargetable transitions. Each time the
// boss leaves and returns, a new phase starts.
type phases struct {
	fight  *model.Fight
	player int
	phases []Phase
	start  int64
	away   bool
}

func newPhases(ctx *module.Context) (module.Module, error) {
	return &phases{fight: ctx.Fight, player: ctx.Combatant.ID, start: ctx.Fight.StartTime}, nil
}

func (p *phases) HandleEvent(e model.Event) {
	if e.Type != model.EventTargetable || e.SourceID == p.player {
		return
	}
	v := gjson.GetBytes(e.Raw, "targetable")
	switch {
	case !v.Exists():
	case v.Int() == 0 && !p.away:
		p.end(e.Timestamp)
		p.away = true
	case v.Int() == 1 && p.away:
		p.start = e.Timestamp
		p.away = false
	}
}

// Finish closes the phase running at fight end.
func (p *phases) Finish() {
	if !p.away {
		p.end(p.fight.EndTime)
		p.away = true
	}
}

func (p *phases) end(ts int64) {
	p.phases = append(p.phases, Phase{Number: len(p.phases) + 1, Start: p.start, End: ts})
}

// PhaseReport is the module's output content.
type PhaseReport struct {
	FightStart int64   `json:"-"`
	Phases     []Phase `json:"phases"`
}

func (r PhaseReport) String() string {
	var b strings.Builder
	for i, ph := range r.Phases {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "P%d  %s - %s", ph.Number,
			common.FormatMS(ph.Start-r.FightStart), common.FormatMS(ph.End-r.FightStart))
	}
	return b.String()
}

func (p *phases) Output() []model.Result {
	return []model.Result{{
		Name:    "Phases",
		Content: PhaseReport{FightStart: p.fight.StartTime, Phases: p.phases},
	}}
}
