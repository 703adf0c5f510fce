package store

import (
	"context"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"
)

// StoreInterface is the set of cache operations the rest of xivlens uses.
// *Store implements it; Cache and the CLI accept it so tests can substitute
// their own.
type StoreInterface interface {
	source.ReportSource
	source.EventSource

	// Close closes the database connection.
	Close() error

	// SaveReport stores a report, replacing any previous copy and its
	// cached event windows.
	SaveReport(ctx context.Context, r *model.Report) error

	// ListReports summarizes every cached report.
	ListReports(ctx context.Context) ([]ReportSummary, error)

	// DeleteReport removes a report and everything cached for it.
	DeleteReport(ctx context.Context, code string) error

	// SaveEvents stores the complete sequence for one window.
	SaveEvents(ctx context.Context, q source.EventQuery, events []model.Event) error

	// CachedEvents returns the stored sequence for exactly q's window.
	CachedEvents(ctx context.Context, q source.EventQuery) ([]model.Event, bool, error)

	// CountEvents returns the number of cached events.
	CountEvents(ctx context.Context) int64
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
