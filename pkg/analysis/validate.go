package analysis

import "github.com/daviddao/xivlens/pkg/model"

// Entity types named by NotFoundError.
const (
	NotFoundFight     = "fight"
	NotFoundCombatant = "friendly combatant"
)

// Validate checks that sel names a fight and a friendly combatant in report,
// and that the combatant took part in that fight. Checks run in that order
// and the first failure is returned. A report that is nil, still loading, or
// for a different code yields ErrReportPending before anything else is
// looked at. report is not modified.
func Validate(report *model.Report, sel model.Selection) (*model.Fight, *model.Combatant, error) {
	if report == nil || report.Loading || report.Code != sel.Code {
		return nil, nil, ErrReportPending
	}

	fightID, err := sel.FightID()
	if err != nil {
		return nil, nil, &NotFoundError{Type: NotFoundFight, ID: sel.Fight}
	}
	fight := report.Fight(fightID)
	if fight == nil {
		return nil, nil, &NotFoundError{Type: NotFoundFight, ID: sel.Fight}
	}

	combatantID, err := sel.CombatantID()
	if err != nil {
		return nil, nil, &NotFoundError{Type: NotFoundCombatant, ID: sel.Combatant}
	}
	combatant := report.Friendly(combatantID)
	if combatant == nil {
		return nil, nil, &NotFoundError{Type: NotFoundCombatant, ID: sel.Combatant}
	}

	if !combatant.Participated(fight.ID) {
		return nil, nil, &DidNotParticipateError{Combatant: combatant.Name, Fight: fight.ID}
	}
	return fight, combatant, nil
}
