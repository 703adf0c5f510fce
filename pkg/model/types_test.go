package model

import (
	"encoding/json"
	"testing"
)

func TestBossID_UnmarshalNumber(t *testing.T) {
	var f Fight
	if err := json.Unmarshal([]byte(`{"id":3,"boss":1045,"start_time":10,"end_time":20}`), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.Boss != "1045" {
		t.Fatalf("boss = %q, want 1045", f.Boss)
	}
}

func TestBossID_UnmarshalString(t *testing.T) {
	var f Fight
	if err := json.Unmarshal([]byte(`{"id":1,"boss":"ifrit"}`), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.Boss != "ifrit" {
		t.Fatalf("boss = %q, want ifrit", f.Boss)
	}
}

func TestBossID_UnmarshalInvalid(t *testing.T) {
	var f Fight
	if err := json.Unmarshal([]byte(`{"boss":{"x":1}}`), &f); err == nil {
		t.Fatal("expected error for object boss id")
	}
}

func TestReport_Lookup(t *testing.T) {
	r := &Report{
		Fights:     []Fight{{ID: 1}, {ID: 4}},
		Friendlies: []Combatant{{ID: 5, Name: "Alice"}},
	}
	if f := r.Fight(4); f == nil || f.ID != 4 {
		t.Fatalf("Fight(4) = %+v", f)
	}
	if f := r.Fight(7); f != nil {
		t.Fatalf("Fight(7) = %+v, want nil", f)
	}
	if c := r.Friendly(5); c == nil || c.Name != "Alice" {
		t.Fatalf("Friendly(5) = %+v", c)
	}
	if c := r.Friendly(6); c != nil {
		t.Fatalf("Friendly(6) = %+v, want nil", c)
	}
}

func TestCombatant_Participated(t *testing.T) {
	c := Combatant{Fights: []FightRef{{ID: 2}, {ID: 3}}}
	cases := []struct {
		fight int
		want  bool
	}{
		{1, false},
		{2, true},
		{3, true},
	}
	for _, tc := range cases {
		if got := c.Participated(tc.fight); got != tc.want {
			t.Errorf("Participated(%d) = %v, want %v", tc.fight, got, tc.want)
		}
	}
}

func TestFight_Window(t *testing.T) {
	f := Fight{StartTime: 100, EndTime: 500}
	if f.Duration() != 400 {
		t.Fatalf("Duration = %d, want 400", f.Duration())
	}
	for _, ts := range []int64{100, 300, 500} {
		if !f.Contains(ts) {
			t.Errorf("Contains(%d) = false, want true", ts)
		}
	}
	for _, ts := range []int64{99, 501} {
		if f.Contains(ts) {
			t.Errorf("Contains(%d) = true, want false", ts)
		}
	}
}

func TestSelection_ParseTokens(t *testing.T) {
	s := Selection{Code: "abc", Fight: "7", Combatant: "x"}
	if id, err := s.FightID(); err != nil || id != 7 {
		t.Fatalf("FightID = %d, %v", id, err)
	}
	if _, err := s.CombatantID(); err == nil {
		t.Fatal("expected error for non-numeric combatant token")
	}
}

func TestEvent_AbilityID(t *testing.T) {
	if (Event{}).AbilityID() != 0 {
		t.Fatal("event without ability should report 0")
	}
	e := Event{Ability: &Ability{GUID: 7389}}
	if e.AbilityID() != 7389 {
		t.Fatalf("AbilityID = %d, want 7389", e.AbilityID())
	}
}
