package common

import (
	"fmt"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
)

const (
	// gcdMS is the base global cooldown.
	gcdMS = 2500
	// gapLeniencyMS is how far past one GCD a gap may run before it counts.
	gapLeniencyMS = 1000
)

// ABC ("always be casting") measures time lost to gaps between casts that
// downtime does not explain.
type ABC struct {
	fight    *model.Fight
	casts    *Casts
	downtime *Downtime
}

// NewABC is the Constructor for ABCID.
func NewABC(ctx *module.Context) (module.Module, error) {
	casts, err := module.Dep[*Casts](ctx, CastsID)
	if err != nil {
		return nil, err
	}
	downtime, err := module.Dep[*Downtime](ctx, DowntimeID)
	if err != nil {
		return nil, err
	}
	return &ABC{fight: ctx.Fight, casts: casts, downtime: downtime}, nil
}

// HandleEvent is a no-op; ABC reads its dependencies once dispatch is over.
func (a *ABC) HandleEvent(model.Event) {}

// Gap is one stretch without casts.
type Gap struct {
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
	LostMS int64 `json:"lost_ms"`
}

// ABCReport is the ABC output content.
type ABCReport struct {
	Gaps     []Gap   `json:"gaps"`
	LostMS   int64   `json:"lost_ms"`
	ActiveMS int64   `json:"active_ms"`
	Uptime   float64 `json:"uptime"`
}

func (r ABCReport) String() string {
	return fmt.Sprintf("%d gaps, %s lost, %.1f%% uptime", len(r.Gaps), FormatMS(r.LostMS), r.Uptime*100)
}

// Gaps returns every gap longer than a GCD plus leniency once downtime is
// subtracted. The fight start and end count as cast boundaries.
func (a *ABC) Gaps() []Gap {
	points := []int64{a.fight.StartTime}
	for _, e := range a.casts.All() {
		points = append(points, e.Timestamp)
	}
	points = append(points, a.fight.EndTime)

	var gaps []Gap
	for i := 1; i < len(points); i++ {
		start, end := points[i-1], points[i]
		span := end - start - a.downtime.Overlap(start, end)
		if span > gcdMS+gapLeniencyMS {
			gaps = append(gaps, Gap{Start: start, End: end, LostMS: span - gcdMS})
		}
	}
	return gaps
}

func (a *ABC) Output() []model.Result {
	gaps := a.Gaps()
	var lost int64
	for _, g := range gaps {
		lost += g.LostMS
	}
	active := a.fight.Duration() - a.downtime.Total()
	uptime := 1.0
	if active > 0 {
		uptime = float64(active-lost) / float64(active)
		if uptime < 0 {
			uptime = 0
		}
	}
	return []model.Result{{
		Name:    "Always be casting",
		Content: ABCReport{Gaps: gaps, LostMS: lost, ActiveMS: active, Uptime: uptime},
	}}
}
