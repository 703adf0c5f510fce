package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
)

// recorder appends "<id>@<timestamp>" to a shared trace for every event it
// sees, and snapshots how many events its dependency had seen at that point.
type recorder struct {
	id       string
	trace    *[]string
	seen     int
	dep      *recorder
	depSeen  []int
	finished bool
	outputs  int
}

func (r *recorder) HandleEvent(e model.Event) {
	r.seen++
	*r.trace = append(*r.trace, fmt.Sprintf("%s@%d", r.id, e.Timestamp))
	if r.dep != nil {
		r.depSeen = append(r.depSeen, r.dep.seen)
	}
}

func (r *recorder) Finish() { r.finished = true }

func (r *recorder) Output() []model.Result {
	r.outputs++
	return []model.Result{
		{Name: r.id + " first", Content: r.seen},
		{Name: r.id + " second"},
	}
}

func recDesc(trace *[]string, id string, deps ...string) module.Descriptor {
	return module.Descriptor{
		ID:   id,
		Deps: deps,
		New: func(ctx *module.Context) (module.Module, error) {
			r := &recorder{id: id, trace: trace}
			if len(deps) > 0 {
				d, err := module.Dep[*recorder](ctx, deps[0])
				if err != nil {
					return nil, err
				}
				r.dep = d
			}
			return r, nil
		},
	}
}

func events(ts ...int64) []model.Event {
	out := make([]model.Event, len(ts))
	for i, t := range ts {
		out[i] = model.Event{Timestamp: t, Type: model.EventCast, SourceID: 5}
	}
	return out
}

func newParser(t *testing.T, ds ...module.Descriptor) *Parser {
	t.Helper()
	p, err := New(&model.Report{Code: "abc"}, &model.Fight{ID: 1}, &model.Combatant{ID: 5}, ds, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestParseEvents_OrderPreserving(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"), recDesc(&trace, "b", "a"))

	if err := p.ParseEvents(events(1, 2, 3)); err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	want := []string{"a@1", "b@1", "a@2", "b@2", "a@3", "b@3"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Fatalf("dispatch trace (-want +got):\n%s", diff)
	}
	if p.EventCount() != 3 || !p.Parsed() {
		t.Fatalf("EventCount=%d Parsed=%v", p.EventCount(), p.Parsed())
	}
}

func TestParseEvents_DependentSeesUpToDateDependency(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"), recDesc(&trace, "b", "a"))
	if err := p.ParseEvents(events(10, 20, 30, 40)); err != nil {
		t.Fatal(err)
	}
	m, _ := p.Module("b")
	b := m.(*recorder)
	if diff := cmp.Diff([]int{1, 2, 3, 4}, b.depSeen); diff != "" {
		t.Fatalf("dependency progress seen by dependent (-want +got):\n%s", diff)
	}
}

func TestParseEvents_FinishCalledOnce(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"))
	if err := p.ParseEvents(nil); err != nil {
		t.Fatal(err)
	}
	m, _ := p.Module("a")
	if !m.(*recorder).finished {
		t.Fatal("Finish not called")
	}
}

func TestParseEvents_SingleUse(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"))
	if err := p.ParseEvents(events(1)); err != nil {
		t.Fatal(err)
	}
	if err := p.ParseEvents(events(2)); !errors.Is(err, ErrAlreadyParsed) {
		t.Fatalf("second ParseEvents: got %v, want ErrAlreadyParsed", err)
	}
	if diff := cmp.Diff([]string{"a@1"}, trace); diff != "" {
		t.Fatalf("second pass must not dispatch (-want +got):\n%s", diff)
	}
}

func TestGenerateResults_RequiresParse(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"))
	if _, err := p.GenerateResults(); !errors.Is(err, ErrNotParsed) {
		t.Fatalf("got %v, want ErrNotParsed", err)
	}
}

func TestGenerateResults_ModuleThenEmissionOrder(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"), recDesc(&trace, "b", "a"))
	if err := p.ParseEvents(events(1, 2)); err != nil {
		t.Fatal(err)
	}
	results, err := p.GenerateResults()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range results {
		got = append(got, r.Module+":"+r.Name)
	}
	want := []string{"a:a first", "a:a second", "b:b first", "b:b second"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results (-want +got):\n%s", diff)
	}
}

// impostor claims its result came from another module.
type impostor struct{}

func (impostor) HandleEvent(model.Event) {}

func (impostor) Output() []model.Result {
	return []model.Result{{Module: "a", Name: "forged"}}
}

func TestGenerateResults_StampsProducingModule(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "a"), module.Descriptor{
		ID:  "z",
		New: func(*module.Context) (module.Module, error) { return impostor{}, nil },
	})
	if err := p.ParseEvents(events(1)); err != nil {
		t.Fatal(err)
	}
	results, err := p.GenerateResults()
	if err != nil {
		t.Fatal(err)
	}
	last := results[len(results)-1]
	if last.Name != "forged" || last.Module != "z" {
		t.Fatalf("last result = %+v, want attributed to z", last)
	}
}

func TestNew_ZeroModules(t *testing.T) {
	p := newParser(t)
	if err := p.ParseEvents(events(1, 2)); err != nil {
		t.Fatal(err)
	}
	results, err := p.GenerateResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
}

func TestNew_DependencyNotYetConstructed(t *testing.T) {
	var trace []string
	_, err := New(nil, nil, nil, []module.Descriptor{
		recDesc(&trace, "b", "a"),
		recDesc(&trace, "a"),
	}, nil)
	var ce *module.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *module.ConfigError, got %v", err)
	}
}

func TestNew_ConstructorFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(nil, nil, nil, []module.Descriptor{{
		ID:  "a",
		New: func(*module.Context) (module.Module, error) { return nil, boom },
	}}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped constructor error, got %v", err)
	}
}

func TestModules_ResolutionOrder(t *testing.T) {
	var trace []string
	p := newParser(t, recDesc(&trace, "x"), recDesc(&trace, "y"), recDesc(&trace, "z", "x"))
	if diff := cmp.Diff([]string{"x", "y", "z"}, p.Modules()); diff != "" {
		t.Fatalf("Modules (-want +got):\n%s", diff)
	}
	if _, ok := p.Module("missing"); ok {
		t.Fatal("Module(missing) should not be found")
	}
}
