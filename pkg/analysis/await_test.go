package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daviddao/xivlens/pkg/model"
)

// flipReports reports Loading for the first n calls.
type flipReports struct {
	calls int
	n     int
}

func (f *flipReports) Report(_ context.Context, code string) (*model.Report, error) {
	f.calls++
	return &model.Report{Code: code, Loading: f.calls <= f.n}, nil
}

func TestAwaitReport_PollsUntilLoaded(t *testing.T) {
	src := &flipReports{n: 2}
	r, err := AwaitReport(context.Background(), src, "abc", time.Millisecond)
	if err != nil {
		t.Fatalf("AwaitReport: %v", err)
	}
	if r.Loading || src.calls != 3 {
		t.Fatalf("loading=%v calls=%d, want loaded after 3 calls", r.Loading, src.calls)
	}
}

func TestAwaitReport_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := AwaitReport(ctx, &flipReports{n: 1 << 30}, "abc", time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}
