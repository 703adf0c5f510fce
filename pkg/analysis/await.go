package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"
)

// AwaitReport polls src until the report for code is loaded, the context is
// done, or src fails. interval <= 0 polls every 500ms.
func AwaitReport(ctx context.Context, src source.ReportSource, code string, interval time.Duration) (*model.Report, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r, err := src.Report(ctx, code)
		if err != nil {
			return nil, err
		}
		if r != nil && !r.Loading && r.Code == code {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await report %q: %w", code, ctx.Err())
		case <-ticker.C:
		}
	}
}
