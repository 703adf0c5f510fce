// Package fixture reads report fixtures from YAML or JSON and imports them
// into the local store, so selections can be analysed offline.
//
// A fixture looks like:
//
//	report:
//	  code: abc
//	  fights: [...]
//	  friendlies: [...]
//	events:
//	  "5":
//	    - {timestamp: 120, type: cast, source_id: 5, ability: {guid: 7389}}
//
// Event keys are actor IDs. JSON documents use the same field names as YAML.
// Event fields beyond the typed ones (targetable, hitType, ...) are kept in
// the event's Raw JSON for modules to read.
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"
)

// Fixture is one report plus per-actor event streams.
type Fixture struct {
	Report model.Report             `yaml:"report"`
	Events map[string][]model.Event `yaml:"events"`
}

// Sink is where Import writes. *store.Store satisfies it.
type Sink interface {
	SaveReport(ctx context.Context, r *model.Report) error
	SaveEvents(ctx context.Context, q source.EventQuery, events []model.Event) error
}

// Summary reports what Import wrote.
type Summary struct {
	Code    string `json:"code"`
	Fights  int    `json:"fights"`
	Windows int    `json:"event_windows"`
	Events  int    `json:"events"`
}

// document is the on-disk shape. Events stay as nodes so each can be
// decoded twice: once typed, once as a free-form map for Raw.
type document struct {
	Report model.Report           `yaml:"report"`
	Events map[string][]yaml.Node `yaml:"events"`
}

// Decode parses a fixture. YAML is a superset of JSON, so both go through
// the YAML decoder.
func Decode(r io.Reader) (*Fixture, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if doc.Report.Code == "" {
		return nil, fmt.Errorf("decode fixture: report.code is required")
	}

	f := &Fixture{Report: doc.Report, Events: make(map[string][]model.Event, len(doc.Events))}
	for key, nodes := range doc.Events {
		if _, err := strconv.Atoi(key); err != nil {
			return nil, fmt.Errorf("decode fixture: events key %q is not an actor id", key)
		}
		events := make([]model.Event, len(nodes))
		for i := range nodes {
			e, err := decodeEvent(&nodes[i])
			if err != nil {
				return nil, fmt.Errorf("decode fixture: events[%s][%d]: %w", key, i, err)
			}
			events[i] = e
		}
		f.Events[key] = events
	}
	return f, nil
}

func decodeEvent(node *yaml.Node) (model.Event, error) {
	var e model.Event
	if err := node.Decode(&e); err != nil {
		return e, err
	}
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return e, err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return e, err
	}
	e.Raw = raw
	return e, nil
}

// Load reads and decodes the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Actors returns the actor IDs with events, ascending.
func (f *Fixture) Actors() []int {
	ids := make([]int, 0, len(f.Events))
	for key := range f.Events {
		id, _ := strconv.Atoi(key)
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Import saves the report, then for every actor with events and every fight
// that actor took part in, the actor's events inside that fight window. Each
// stored event carries its JSON encoding as Raw, as if it came from FFLogs.
func (f *Fixture) Import(ctx context.Context, sink Sink, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sum := Summary{Code: f.Report.Code, Fights: len(f.Report.Fights)}
	report := f.Report
	if err := sink.SaveReport(ctx, &report); err != nil {
		return sum, fmt.Errorf("import %s: %w", report.Code, err)
	}

	for _, actor := range f.Actors() {
		events := f.Events[strconv.Itoa(actor)]
		c := report.Friendly(actor)
		for _, fight := range report.Fights {
			if c != nil && !c.Participated(fight.ID) {
				continue
			}
			window, err := eventsIn(events, fight)
			if err != nil {
				return sum, fmt.Errorf("import %s actor %d: %w", report.Code, actor, err)
			}
			q := source.EventQuery{Code: report.Code, Start: fight.StartTime, End: fight.EndTime, ActorID: actor}
			if err := sink.SaveEvents(ctx, q, window); err != nil {
				return sum, fmt.Errorf("import %s: %w", q, err)
			}
			sum.Windows++
			sum.Events += len(window)
			logger.Debug("imported window", zap.Stringer("query", q), zap.Int("events", len(window)))
		}
	}
	return sum, nil
}

// eventsIn returns the events inside the fight window with Raw populated.
func eventsIn(events []model.Event, fight model.Fight) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range events {
		if !fight.Contains(e.Timestamp) {
			continue
		}
		if len(e.Raw) == 0 {
			raw, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			e.Raw = raw
		}
		out = append(out, e)
	}
	return out, nil
}
