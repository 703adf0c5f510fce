// Package source defines where reports and events come from.
//
// The analysis core depends only on these interfaces. Implementations live
// elsewhere: pkg/fflogs talks to the FFLogs API, pkg/store caches both in
// SQLite, and Memory serves fixtures held in memory.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/daviddao/xivlens/pkg/model"
)

// ErrNotFound indicates the source has no report with the requested code.
var ErrNotFound = errors.New("not found")

// ReportSource provides a report by code. A report that is still being
// prepared is returned with Loading set.
type ReportSource interface {
	Report(ctx context.Context, code string) (*model.Report, error)
}

// EventQuery selects one actor's events inside a time window of a report.
type EventQuery struct {
	Code    string `json:"code"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	ActorID int    `json:"actor_id"`
}

func (q EventQuery) String() string {
	return fmt.Sprintf("%s[%d..%d]#%d", q.Code, q.Start, q.End, q.ActorID)
}

// EventSource returns the complete, ordered event sequence for a query.
// Implementations must not return a partial sequence alongside a nil error.
type EventSource interface {
	Events(ctx context.Context, q EventQuery) ([]model.Event, error)
}
