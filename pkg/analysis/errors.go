package analysis

import (
	"errors"
	"fmt"

	"github.com/daviddao/xivlens/pkg/source"
)

var (
	// ErrReportPending indicates the report is missing, still loading, or is
	// not the one the selection names. Nothing was validated; retry later.
	ErrReportPending = errors.New("report not loaded")
	// ErrRunStarted indicates Execute on a run that has already been started.
	ErrRunStarted = errors.New("run already started")
	// ErrNotComplete indicates results were requested before the run completed.
	ErrNotComplete = errors.New("run not complete")
	// ErrMalformedEvents indicates an event sequence that is out of order or
	// outside the fight window.
	ErrMalformedEvents = errors.New("malformed event sequence")
)

// NotFoundError reports a fight or combatant token with no match in the
// report.
type NotFoundError struct {
	Type string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %q", e.Type, e.ID)
}

// DidNotParticipateError reports a combatant that exists in the report but
// took no part in the selected fight.
type DidNotParticipateError struct {
	Combatant string
	Fight     int
}

func (e *DidNotParticipateError) Error() string {
	return fmt.Sprintf("%s did not participate in fight %d", e.Combatant, e.Fight)
}

// IngestionError reports that the event sequence for a run could not be
// fetched or was unusable. Retrying is the caller's decision.
type IngestionError struct {
	Query source.EventQuery
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest events %s: %v", e.Query, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
