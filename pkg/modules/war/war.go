// Package war holds the Warrior job bundle.
package war

import (
	"fmt"
	"strings"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules/common"
)

// Job is the combatant type this bundle applies to.
const Job = "WAR"

// InnerReleaseID is the module ID of the Inner Release checker.
const InnerReleaseID = "innerrelease"

// Ability guids.
const (
	InnerRelease   = 7389
	HeavySwing     = 31
	Maim           = 37
	Overpower      = 41
	StormsPath     = 42
	StormsEye      = 45
	Tomahawk       = 46
	InnerBeast     = 49
	SteelCyclone   = 51
	FellCleave     = 3549
	Decimate       = 3550
	MythrilTempest = 16462
)

// GCDs lists the weaponskills that consume the global cooldown.
var GCDs = []int{
	HeavySwing, Maim, Overpower, StormsPath, StormsEye, Tomahawk,
	InnerBeast, SteelCyclone, FellCleave, Decimate, MythrilTempest,
}

const (
	windowMS     = 10000
	expectedGCDs = 5
)

// Bundle returns the shared modules plus the Warrior checks.
func Bundle() *module.Bundle {
	mods := common.Descriptors()
	mods = append(mods, module.Descriptor{
		ID:   InnerReleaseID,
		Deps: []string{common.CastsID},
		New:  newInnerReleaseChecker,
	})
	return &module.Bundle{Name: Job, Modules: mods}
}

// innerReleaseChecker counts the GCDs landed inside each Inner Release.
type innerReleaseChecker struct {
	fight *model.Fight
	casts *common.Casts
}

func newInnerReleaseChecker(ctx *module.Context) (module.Module, error) {
	casts, err := module.Dep[*common.Casts](ctx, common.CastsID)
	if err != nil {
		return nil, err
	}
	return &innerReleaseChecker{fight: ctx.Fight, casts: casts}, nil
}

func (c *innerReleaseChecker) HandleEvent(model.Event) {}

// Window is one Inner Release use.
type Window struct {
	Start int64 `json:"start"`
	GCDs  int   `json:"gcds"`
	// Truncated is set when the fight ended before the window ran out.
	Truncated bool `json:"truncated,omitempty"`
}

// Missed returns how many GCDs short of the target the window fell.
func (w Window) Missed() int { return max(expectedGCDs-w.GCDs, 0) }

// InnerReleaseReport is the module's output content.
type InnerReleaseReport struct {
	FightStart int64    `json:"-"`
	Windows    []Window `json:"windows"`
	Missed     int      `json:"missed_gcds"`
}

func (r InnerReleaseReport) String() string {
	if len(r.Windows) == 0 {
		return "Inner Release was never used"
	}
	var b strings.Builder
	for _, w := range r.Windows {
		fmt.Fprintf(&b, "%s  %d/%d GCDs", common.FormatMS(w.Start-r.FightStart), w.GCDs, expectedGCDs)
		if w.Truncated {
			b.WriteString(" (fight ended)")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d GCDs missed", r.Missed)
	return b.String()
}

// Windows returns one entry per Inner Release cast.
func (c *innerReleaseChecker) Windows() []Window {
	var out []Window
	for _, ir := range c.casts.Of(InnerRelease) {
		end := ir.Timestamp + windowMS
		out = append(out, Window{
			Start:     ir.Timestamp,
			GCDs:      len(c.casts.Between(ir.Timestamp, end, GCDs...)),
			Truncated: end > c.fight.EndTime,
		})
	}
	return out
}

func (c *innerReleaseChecker) Output() []model.Result {
	windows := c.Windows()
	missed := 0
	for _, w := range windows {
		if !w.Truncated {
			missed += w.Missed()
		}
	}
	return []model.Result{{
		Name:    "Inner Release",
		Content: InnerReleaseReport{FightStart: c.fight.StartTime, Windows: windows, Missed: missed},
	}}
}
