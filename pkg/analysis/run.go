// Package analysis runs one analysis of one combatant in one fight.
//
// A Run moves through a fixed sequence of stages:
//
//	Unstarted -> Validating -> Resolving -> Dispatching -> Complete
//
// Validating loads the report and checks the selection. Resolving loads the
// job and boss bundles, orders their modules and constructs them. Dispatching
// fetches the combatant's events for the fight window and streams them
// through the modules. Each stage only starts once the previous one has
// succeeded; a failure leaves the run in the stage that failed, with the
// error recorded. Results are available only in Complete, are computed at
// most once, and stay cached until Reset.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/parser"
	"github.com/daviddao/xivlens/pkg/source"
)

const instrumentation = "github.com/daviddao/xivlens/pkg/analysis"

// State is a Run's position in the pipeline.
type State int

const (
	StateUnstarted State = iota
	StateValidating
	StateResolving
	StateDispatching
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateValidating:
		return "validating"
	case StateResolving:
		return "resolving"
	case StateDispatching:
		return "dispatching"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds a Run's collaborators. Reports, Events and Registry are
// required; Logger defaults to a no-op logger.
type Config struct {
	Reports  source.ReportSource
	Events   source.EventSource
	Registry *module.Registry
	Logger   *zap.Logger
}

// Run binds one selection to one resolved module set, one event sequence and
// one cached result list. A Run is safe for concurrent use: accessors report
// progress while Execute is in flight, and only one Execute runs at a time.
type Run struct {
	ID        uuid.UUID
	Selection model.Selection

	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer

	dispatched metric.Int64Counter
	failures   metric.Int64Counter

	mu        sync.Mutex
	running   bool
	state     State
	err       error
	report    *model.Report
	fight     *model.Fight
	combatant *model.Combatant
	parser    *parser.Parser
	results   []model.Result
	cached    bool
}

// NewRun creates an unstarted run for sel.
func NewRun(sel model.Selection, cfg Config) (*Run, error) {
	if cfg.Reports == nil || cfg.Events == nil || cfg.Registry == nil {
		return nil, fmt.Errorf("new run: reports, events and registry are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	id := uuid.New()
	meter := otel.Meter(instrumentation)
	dispatched, _ := meter.Int64Counter("xivlens.events.dispatched",
		metric.WithDescription("Events dispatched to analysis modules"))
	failures, _ := meter.Int64Counter("xivlens.runs.failed",
		metric.WithDescription("Analysis runs that stopped before completing"))

	return &Run{
		ID:        id,
		Selection: sel,
		cfg:       cfg,
		logger: cfg.Logger.Named("run").With(
			zap.String("run_id", id.String()),
			zap.String("code", sel.Code),
			zap.String("fight", sel.Fight),
			zap.String("combatant", sel.Combatant),
		),
		tracer:     otel.Tracer(instrumentation),
		dispatched: dispatched,
		failures:   failures,
	}, nil
}

// State returns the run's current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error that stopped the run, if any.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Fight returns the validated fight, or nil before validation succeeds.
func (r *Run) Fight() *model.Fight {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fight
}

// Combatant returns the validated combatant, or nil before validation
// succeeds.
func (r *Run) Combatant() *model.Combatant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.combatant
}

// Modules returns the resolved module IDs in dispatch order, or nil before
// resolution succeeds.
func (r *Run) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parser == nil {
		return nil
	}
	return r.parser.Modules()
}

// Execute drives the run from Unstarted to Complete. It returns the first
// error encountered; the run then stays in the stage that failed.
//
// ErrReportPending is the exception: the report is not ready yet, so the run
// returns to Unstarted and Execute may simply be called again.
func (r *Run) Execute(ctx context.Context) error {
	r.mu.Lock()
	if r.running || r.state != StateUnstarted {
		r.mu.Unlock()
		return ErrRunStarted
	}
	r.running = true
	r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "analysis.Run",
		trace.WithAttributes(
			attribute.String("xivlens.run_id", r.ID.String()),
			attribute.String("xivlens.report", r.Selection.Code),
		))
	defer span.End()

	err := r.execute(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	switch {
	case err == nil:
		r.state = StateComplete
		r.logger.Info("run complete",
			zap.Int("modules", len(r.parser.Modules())),
			zap.Int("events", r.parser.EventCount()))
	case errors.Is(err, ErrReportPending):
		r.state = StateUnstarted
		r.logger.Debug("report not ready")
	default:
		r.err = err
		r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", r.state.String())))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("run failed", zap.Stringer("stage", r.state), zap.Error(err))
	}
	return err
}

// execute runs the stages in order. Only the goroutine holding the running
// flag writes the run's fields, so stages read them without the lock and
// take it only to publish.
func (r *Run) execute(ctx context.Context) error {
	if err := r.stage(ctx, StateValidating, r.validate); err != nil {
		return err
	}
	if err := r.stage(ctx, StateResolving, r.resolve); err != nil {
		return err
	}
	return r.stage(ctx, StateDispatching, r.dispatch)
}

// stage enters state s and runs fn inside a child span.
func (r *Run) stage(ctx context.Context, s State, fn func(context.Context) error) error {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.logger.Debug("stage", zap.Stringer("state", s))
	ctx, span := r.tracer.Start(ctx, "analysis."+s.String())
	defer span.End()
	if err := fn(ctx); err != nil {
		if !errors.Is(err, ErrReportPending) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
	return nil
}

func (r *Run) validate(ctx context.Context) error {
	report, err := r.cfg.Reports.Report(ctx, r.Selection.Code)
	if err != nil {
		return fmt.Errorf("fetch report %q: %w", r.Selection.Code, err)
	}
	fight, combatant, err := Validate(report, r.Selection)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.report, r.fight, r.combatant = report, fight, combatant
	r.mu.Unlock()
	return nil
}

func (r *Run) resolve(ctx context.Context) error {
	candidates, err := r.cfg.Registry.Load(ctx, r.combatant.Type, string(r.fight.Boss))
	if err != nil {
		return err
	}
	ordered, err := module.Resolve(candidates)
	if err != nil {
		return err
	}
	p, err := parser.New(r.report, r.fight, r.combatant, ordered, r.logger)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.parser = p
	r.mu.Unlock()
	r.logger.Debug("modules resolved", zap.Strings("order", p.Modules()))
	return nil
}

func (r *Run) dispatch(ctx context.Context) error {
	q := source.EventQuery{
		Code:    r.report.Code,
		Start:   r.fight.StartTime,
		End:     r.fight.EndTime,
		ActorID: r.combatant.ID,
	}
	events, err := r.cfg.Events.Events(ctx, q)
	if err != nil {
		return &IngestionError{Query: q, Err: err}
	}
	if err := checkSequence(events, r.fight); err != nil {
		return &IngestionError{Query: q, Err: err}
	}
	if err := r.parser.ParseEvents(events); err != nil {
		return err
	}
	r.dispatched.Add(ctx, int64(len(events)))
	return nil
}

// checkSequence rejects events that go backwards in time or fall outside
// the fight window.
func checkSequence(events []model.Event, fight *model.Fight) error {
	for i, e := range events {
		if !fight.Contains(e.Timestamp) {
			return fmt.Errorf("%w: event %d at %d outside fight window [%d, %d]",
				ErrMalformedEvents, i, e.Timestamp, fight.StartTime, fight.EndTime)
		}
		if i > 0 && e.Timestamp < events[i-1].Timestamp {
			return fmt.Errorf("%w: event %d at %d precedes event %d at %d",
				ErrMalformedEvents, i, e.Timestamp, i-1, events[i-1].Timestamp)
		}
	}
	return nil
}

// Results returns the ordered findings of a completed run. Module output
// hooks run on the first call only; later calls return the same list.
func (r *Run) Results() ([]model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateComplete {
		return nil, ErrNotComplete
	}
	if !r.cached {
		results, err := r.parser.GenerateResults()
		if err != nil {
			return nil, err
		}
		r.results, r.cached = results, true
	}
	return append([]model.Result(nil), r.results...), nil
}

// Reset discards everything the run has computed and returns it to
// Unstarted, so the next Execute validates, resolves and dispatches from
// scratch with fresh module instances. Reset does nothing while Execute is
// in flight.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.state = StateUnstarted
	r.err = nil
	r.report, r.fight, r.combatant = nil, nil, nil
	r.parser = nil
	r.results, r.cached = nil, false
}
