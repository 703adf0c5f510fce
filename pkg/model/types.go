// Package model defines the core domain types for xivlens.
//
// A Report is one recorded combat-log session. It holds the Fights that took
// place and the friendly Combatants that were present. Analysis looks at one
// Combatant in one Fight at a time: the Combatant's Events inside the Fight's
// time window are streamed through a set of analysis modules, and each module
// contributes zero or more Results.
//
// Reports, Fights and Combatants are owned by whatever loaded them and are
// read-only to the analysis core, so they may be shared between runs.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BossID identifies the encounter a Fight belongs to. FFLogs reports it as a
// number; fixtures and tests usually use a readable name ("ifrit"). Both
// decode into the same string form.
type BossID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (b *BossID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BossID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("boss id: %w", err)
	}
	*b = BossID(n.String())
	return nil
}

// Report is a collection of Fights and Combatants for one recorded session.
type Report struct {
	Code       string      `json:"code" yaml:"code"`
	Title      string      `json:"title,omitempty" yaml:"title"`
	Loading    bool        `json:"loading,omitempty" yaml:"loading"`
	Fights     []Fight     `json:"fights" yaml:"fights"`
	Friendlies []Combatant `json:"friendlies" yaml:"friendlies"`
}

// Fight returns the fight with the given id, or nil.
func (r *Report) Fight(id int) *Fight {
	for i := range r.Fights {
		if r.Fights[i].ID == id {
			return &r.Fights[i]
		}
	}
	return nil
}

// Friendly returns the friendly combatant with the given id, or nil.
func (r *Report) Friendly(id int) *Combatant {
	for i := range r.Friendlies {
		if r.Friendlies[i].ID == id {
			return &r.Friendlies[i]
		}
	}
	return nil
}

// Fight is one encounter instance. Times are milliseconds relative to the
// start of the report, as FFLogs reports them.
type Fight struct {
	ID        int    `json:"id" yaml:"id"`
	Boss      BossID `json:"boss" yaml:"boss"`
	StartTime int64  `json:"start_time" yaml:"start_time"`
	EndTime   int64  `json:"end_time" yaml:"end_time"`
	Name      string `json:"name" yaml:"name"`
	ZoneName  string `json:"zoneName,omitempty" yaml:"zone_name"`
	Kill      bool   `json:"kill,omitempty" yaml:"kill"`
}

// Duration returns the fight length in milliseconds.
func (f Fight) Duration() int64 { return f.EndTime - f.StartTime }

// Contains reports whether ts lies inside the fight window (inclusive).
func (f Fight) Contains(ts int64) bool {
	return ts >= f.StartTime && ts <= f.EndTime
}

// FightRef is the participation record FFLogs attaches to each friendly.
type FightRef struct {
	ID int `json:"id" yaml:"id"`
}

// Combatant is one friendly participant. Type is the job abbreviation
// ("WAR", "WHM", ...) and selects the job module bundle.
type Combatant struct {
	ID     int        `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Type   string     `json:"type" yaml:"type"`
	Server string     `json:"server,omitempty" yaml:"server"`
	Fights []FightRef `json:"fights" yaml:"fights"`
}

// Participated reports whether the combatant took part in fight fightID.
func (c Combatant) Participated(fightID int) bool {
	for _, f := range c.Fights {
		if f.ID == fightID {
			return true
		}
	}
	return false
}

// Ability is the action attached to an event, when there is one.
type Ability struct {
	GUID int    `json:"guid" yaml:"guid"`
	Name string `json:"name" yaml:"name"`
	Type int    `json:"type,omitempty" yaml:"type"`
}

// Event is one timestamped occurrence attributed to an actor. The analysis
// core only looks at Timestamp and SourceID; everything else is for modules.
// Raw holds the upstream JSON object untouched so modules can read fields the
// typed view does not carry.
type Event struct {
	Timestamp int64           `json:"timestamp" yaml:"timestamp"`
	Type      string          `json:"type" yaml:"type"`
	SourceID  int             `json:"sourceID" yaml:"source_id"`
	TargetID  int             `json:"targetID,omitempty" yaml:"target_id"`
	Ability   *Ability        `json:"ability,omitempty" yaml:"ability"`
	Amount    int64           `json:"amount,omitempty" yaml:"amount"`
	Raw       json.RawMessage `json:"-" yaml:"-"`
}

// Event types emitted by FFLogs that bundled modules react to.
const (
	EventBeginCast    = "begincast"
	EventCast         = "cast"
	EventDamage       = "damage"
	EventHeal         = "heal"
	EventApplyBuff    = "applybuff"
	EventRemoveBuff   = "removebuff"
	EventApplyDebuff  = "applydebuff"
	EventRemoveDebuff = "removedebuff"
	EventDeath        = "death"
	EventTargetable   = "targetabilityupdate"
)

// AbilityID returns the ability guid, or 0 when the event carries none.
func (e Event) AbilityID() int {
	if e.Ability == nil {
		return 0
	}
	return e.Ability.GUID
}

// Result is one named finding produced by an analysis module. Content is
// opaque to the core; renderers decide how to show it.
type Result struct {
	Module  string `json:"module"`
	Name    string `json:"name"`
	Content any    `json:"content"`
}

// Selection is the user-facing reference to analyse: a report code plus fight
// and combatant tokens, typically parsed from a URL or the command line.
type Selection struct {
	Code      string `json:"code"`
	Fight     string `json:"fight"`
	Combatant string `json:"combatant"`
}

// FightID parses the fight token.
func (s Selection) FightID() (int, error) { return strconv.Atoi(s.Fight) }

// CombatantID parses the combatant token.
func (s Selection) CombatantID() (int, error) { return strconv.Atoi(s.Combatant) }
