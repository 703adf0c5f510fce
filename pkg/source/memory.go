package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/daviddao/xivlens/pkg/model"
)

// Memory is an in-memory ReportSource and EventSource. Events are stored per
// report and actor and filtered to the query window on read.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]*model.Report
	events  map[string]map[int][]model.Event
}

// NewMemory creates an empty Memory source.
func NewMemory() *Memory {
	return &Memory{
		reports: make(map[string]*model.Report),
		events:  make(map[string]map[int][]model.Event),
	}
}

// PutReport stores r under r.Code, replacing any previous report.
func (m *Memory) PutReport(r *model.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.Code] = r
}

// PutEvents stores the events of one actor in a report.
func (m *Memory) PutEvents(code string, actorID int, events []model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events[code] == nil {
		m.events[code] = make(map[int][]model.Event)
	}
	m.events[code][actorID] = append([]model.Event(nil), events...)
}

// Report implements ReportSource.
func (m *Memory) Report(_ context.Context, code string) (*model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[code]
	if !ok {
		return nil, fmt.Errorf("report %q: %w", code, ErrNotFound)
	}
	return r, nil
}

// Events implements EventSource.
func (m *Memory) Events(_ context.Context, q EventQuery) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.reports[q.Code]; !ok {
		return nil, fmt.Errorf("report %q: %w", q.Code, ErrNotFound)
	}
	var out []model.Event
	for _, e := range m.events[q.Code][q.ActorID] {
		if e.Timestamp >= q.Start && e.Timestamp <= q.End {
			out = append(out, e)
		}
	}
	return out, nil
}
