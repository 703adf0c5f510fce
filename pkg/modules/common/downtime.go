package common

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
)

// Window is a closed time range in report milliseconds.
type Window struct {
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Reason string `json:"reason"`
}

// Duration returns the window length.
func (w Window) Duration() int64 { return w.End - w.Start }

// Downtime tracks when the combatant could not usefully act: while dead, or
// while the enemy was untargetable.
type Downtime struct {
	player  int
	fight   *model.Fight
	windows []Window

	deadSince       int64
	dead            bool
	untargetedSince int64
	untargeted      bool
}

// NewDowntime is the Constructor for DowntimeID.
func NewDowntime(ctx *module.Context) (module.Module, error) {
	return &Downtime{player: ctx.Combatant.ID, fight: ctx.Fight}, nil
}

func (d *Downtime) HandleEvent(e model.Event) {
	switch {
	case e.Type == model.EventDeath && e.TargetID == d.player:
		if !d.dead {
			d.dead, d.deadSince = true, e.Timestamp
		}
	case d.dead && e.SourceID == d.player && (e.Type == model.EventCast || e.Type == model.EventBeginCast):
		// Acting again means the combatant was raised.
		d.close(d.deadSince, e.Timestamp, "dead")
		d.dead = false
	case e.Type == model.EventTargetable && e.SourceID != d.player:
		targetable := gjson.GetBytes(e.Raw, "targetable")
		if !targetable.Exists() {
			return
		}
		if targetable.Int() == 0 && !d.untargeted {
			d.untargeted, d.untargetedSince = true, e.Timestamp
		} else if targetable.Int() == 1 && d.untargeted {
			d.close(d.untargetedSince, e.Timestamp, "untargetable")
			d.untargeted = false
		}
	}
}

// Finish closes windows still open at fight end.
func (d *Downtime) Finish() {
	if d.dead {
		d.close(d.deadSince, d.fight.EndTime, "dead")
		d.dead = false
	}
	if d.untargeted {
		d.close(d.untargetedSince, d.fight.EndTime, "untargetable")
		d.untargeted = false
	}
}

func (d *Downtime) close(start, end int64, reason string) {
	if end > start {
		d.windows = append(d.windows, Window{Start: start, End: end, Reason: reason})
	}
}

// Windows returns the recorded downtime windows in the order they closed.
func (d *Downtime) Windows() []Window { return d.windows }

// Overlap returns how many milliseconds of [start, end) fall in downtime.
// Overlapping windows are counted once.
func (d *Downtime) Overlap(start, end int64) int64 {
	var total int64
	cursor := start
	for _, w := range d.sorted() {
		s, e := max(w.Start, cursor), min(w.End, end)
		if e > s {
			total += e - s
			cursor = e
		}
	}
	return total
}

// Total returns the downtime inside the fight.
func (d *Downtime) Total() int64 { return d.Overlap(d.fight.StartTime, d.fight.EndTime) }

func (d *Downtime) sorted() []Window {
	out := append([]Window(nil), d.windows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// DowntimeReport is the Downtime output content.
type DowntimeReport struct {
	Fight   *model.Fight `json:"-"`
	Windows []Window     `json:"windows"`
	TotalMS int64        `json:"total_ms"`
}

func (r DowntimeReport) String() string {
	if len(r.Windows) == 0 {
		return "no downtime"
	}
	var b strings.Builder
	for _, w := range r.Windows {
		fmt.Fprintf(&b, "%s - %s  %s\n",
			FormatMS(w.Start-r.Fight.StartTime), FormatMS(w.End-r.Fight.StartTime), w.Reason)
	}
	fmt.Fprintf(&b, "total %s", FormatMS(r.TotalMS))
	return b.String()
}

func (d *Downtime) Output() []model.Result {
	return []model.Result{{
		Name:    "Downtime",
		Content: DowntimeReport{Fight: d.fight, Windows: d.windows, TotalMS: d.Total()},
	}}
}
