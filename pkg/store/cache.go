package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"
)

// Cache serves reports and events from a StoreInterface, falling back to
// upstream sources on a miss and saving what they return. With nil upstreams
// it serves the cache alone.
type Cache struct {
	store   StoreInterface
	reports source.ReportSource
	events  source.EventSource
	logger  *zap.Logger
}

// NewCache wraps s with the given upstreams, either of which may be nil.
func NewCache(s StoreInterface, reports source.ReportSource, events source.EventSource, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: s, reports: reports, events: events, logger: logger.Named("cache")}
}

// Report implements source.ReportSource. Reports still loading upstream are
// returned but not cached.
func (c *Cache) Report(ctx context.Context, code string) (*model.Report, error) {
	r, err := c.store.Report(ctx, code)
	if err == nil {
		c.logger.Debug("report cache hit", zap.String("code", code))
		return r, nil
	}
	if !errors.Is(err, source.ErrNotFound) || c.reports == nil {
		return nil, err
	}

	r, err = c.reports.Report(ctx, code)
	if err != nil {
		return nil, err
	}
	if !r.Loading {
		if err := c.store.SaveReport(ctx, r); err != nil {
			c.logger.Warn("cache report", zap.String("code", code), zap.Error(err))
		}
	}
	return r, nil
}

// Events implements source.EventSource. Only complete sequences returned by
// the upstream are cached.
func (c *Cache) Events(ctx context.Context, q source.EventQuery) ([]model.Event, error) {
	events, ok, err := c.store.CachedEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if ok {
		c.logger.Debug("events cache hit", zap.Stringer("query", q), zap.Int("events", len(events)))
		return events, nil
	}
	if c.events == nil {
		return c.store.Events(ctx, q)
	}

	events, err = c.events.Events(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveEvents(ctx, q, events); err != nil {
		c.logger.Warn("cache events", zap.Stringer("query", q), zap.Error(err))
	}
	return events, nil
}
