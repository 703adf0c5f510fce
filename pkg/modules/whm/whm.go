// Package whm holds the White Mage job bundle.
package whm

import (
	"fmt"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules/common"
)

// Job is the combatant type this bundle applies to.
const Job = "WHM"

// LiliesID is the module ID of the lily gauge tracker.
const LiliesID = "lilies"

// Lily spenders.
const (
	AfflatusSolace  = 16531
	AfflatusRapture = 16534
)

const (
	lilyIntervalMS = 30000
	maxLilies      = 3
)

// Bundle returns the shared modules plus the White Mage checks.
func Bundle() *module.Bundle {
	mods := common.Descriptors()
	mods = append(mods, module.Descriptor{
		ID:   LiliesID,
		Deps: []string{common.CastsID},
		New:  newLilies,
	})
	return &module.Bundle{Name: Job, Modules: mods}
}

// lilies replays the lily gauge: one lily every thirty seconds of combat,
// capped at three, spent by the Afflatus heals.
type lilies struct {
	fight *model.Fight
	casts *common.Casts
}

func newLilies(ctx *module.Context) (module.Module, error) {
	casts, err := module.Dep[*common.Casts](ctx, common.CastsID)
	if err != nil {
		return nil, err
	}
	return &lilies{fight: ctx.Fight, casts: casts}, nil
}

func (l *lilies) HandleEvent(model.Event) {}

// LilyReport is the module's output content.
type LilyReport struct {
	Generated int `json:"generated"`
	Spent     int `json:"spent"`
	// Wasted counts lilies that would have been gained at full gauge.
	Wasted int `json:"wasted"`
	// Held is the gauge at fight end.
	Held int `json:"held"`
}

func (r LilyReport) String() string {
	return fmt.Sprintf("%d lilies generated, %d spent, %d lost to overcap, %d unused at end",
		r.Generated, r.Spent, r.Wasted, r.Held)
}

// Replay walks the fight and returns the gauge accounting.
func (l *lilies) Replay() LilyReport {
	var r LilyReport
	spends := l.casts.Of(AfflatusSolace, AfflatusRapture)
	gauge := 0
	next := 0
	for tick := l.fight.StartTime + lilyIntervalMS; tick <= l.fight.EndTime; tick += lilyIntervalMS {
		for ; next < len(spends) && spends[next].Timestamp < tick; next++ {
			r.Spent++
			gauge = max(gauge-1, 0)
		}
		if gauge == maxLilies {
			r.Wasted++
			continue
		}
		gauge++
		r.Generated++
	}
	for ; next < len(spends); next++ {
		r.Spent++
		gauge = max(gauge-1, 0)
	}
	r.Held = gauge
	return r
}

func (l *lilies) Output() []model.Result {
	return []model.Result{{Name: "Lilies", Content: l.Replay()}}
}
