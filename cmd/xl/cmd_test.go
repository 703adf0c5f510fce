package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fixtureYAML = `
report:
  code: abc
  title: Ifrit farm
  fights:
    - {id: 1, boss: ifrit, start_time: 0, end_time: 30000, name: Ifrit, kill: true}
    - {id: 2, boss: garuda, start_time: 40000, end_time: 60000, name: Garuda}
  friendlies:
    - {id: 5, name: Alice, type: WAR, fights: [{id: 1}]}
    - {id: 6, name: Bob, type: SCH, fights: [{id: 2}]}
events:
  "5":
    - {timestamp: 1000, type: cast, source_id: 5, ability: {guid: 7389, name: Inner Release}}
    - {timestamp: 1500, type: cast, source_id: 5, ability: {guid: 3549, name: Fell Cleave}}
    - {timestamp: 4000, type: cast, source_id: 5, ability: {guid: 3549, name: Fell Cleave}}
    - {timestamp: 15000, type: targetabilityupdate, source_id: 40, targetable: 0}
    - {timestamp: 20000, type: targetabilityupdate, source_id: 40, targetable: 1}
  "6": []
`

// setupEnv points the CLI at a fresh offline database.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XL_DB", filepath.Join(dir, "test.db"))
	t.Setenv("XL_OFFLINE", "true")
	t.Setenv("XL_LOG_LEVEL", "error")
	t.Setenv("FFLOGS_API_KEY", "")
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func importFixture(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "abc.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCmd(t, "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported abc: 2 fights, 2 event windows, 5 events") {
		t.Fatalf("import output = %q", out)
	}
}

// --- parseSelection tests ---

func TestParseSelection(t *testing.T) {
	cases := []struct {
		args []string
		want [3]string
	}{
		{[]string{"abc", "1", "5"}, [3]string{"abc", "1", "5"}},
		{[]string{"https://xivanalysis.com/analyse/abc/1/5"}, [3]string{"abc", "1", "5"}},
		{[]string{"https://www.fflogs.com/reports/abc#fight=3&source=9"}, [3]string{"abc", "3", "9"}},
		{[]string{"https://www.fflogs.com/reports/abc"}, [3]string{"abc", "", ""}},
	}
	for _, tc := range cases {
		sel, err := parseSelection(tc.args)
		if err != nil {
			t.Fatalf("parseSelection(%v): %v", tc.args, err)
		}
		got := [3]string{sel.Code, sel.Fight, sel.Combatant}
		if got != tc.want {
			t.Errorf("parseSelection(%v) = %v, want %v", tc.args, got, tc.want)
		}
	}
}

func TestParseSelection_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"abc", "1"},
		{"https://example.com/somewhere/else"},
		{"https://xivanalysis.com/analyse/abc/1"},
	} {
		if _, err := parseSelection(args); err == nil {
			t.Errorf("parseSelection(%v): expected error", args)
		}
	}
}

// --- command tests ---

func TestAnalyse_EndToEnd(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := runCmd(t, "analyse", "abc", "1", "5")
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	for _, want := range []string{
		"Alice (WAR) in fight 1: Ifrit",
		"modules: ifritphases, casts, downtime, abc, innerrelease",
		"== Phases [ifritphases]",
		"P1  0:00.0 - 0:15.0",
		"== Inner Release [innerrelease]",
		"0:01.0  2/5 GCDs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyse_JSON(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := runCmd(t, "analyse", "--json", "https://www.fflogs.com/reports/abc#fight=1&source=5")
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	var got struct {
		RunID   string   `json:"run_id"`
		Modules []string `json:"modules"`
		Results []struct {
			Module string `json:"module"`
			Name   string `json:"name"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if got.RunID == "" {
		t.Fatal("missing run_id")
	}
	var modules []string
	for _, r := range got.Results {
		modules = append(modules, r.Module)
	}
	want := []string{"ifritphases", "casts", "downtime", "abc", "innerrelease"}
	if diff := cmp.Diff(want, modules); diff != "" {
		t.Fatalf("result modules (-want +got):\n%s", diff)
	}
}

func TestAnalyse_NoModules(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := runCmd(t, "analyse", "abc", "2", "6")
	if err != nil {
		t.Fatalf("analyse: %v", err)
	}
	if !strings.Contains(out, "no analysis modules apply") {
		t.Fatalf("output = %q", out)
	}
}

func TestAnalyse_Errors(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"analyse", "abc", "7", "5"}, `not found: fight "7"`},
		{[]string{"analyse", "abc", "1", "99"}, `not found: friendly combatant "99"`},
		{[]string{"analyse", "abc", "2", "5"}, "Alice did not participate in fight 2"},
		{[]string{"analyse", "zzz", "1", "5"}, "not found"},
	}
	for _, tc := range cases {
		_, err := runCmd(t, tc.args...)
		if err == nil {
			t.Errorf("%v: expected error", tc.args)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%v: error %q does not contain %q", tc.args, err, tc.want)
		}
	}
}

func TestFights(t *testing.T) {
	dir := setupEnv(t)
	importFixture(t, dir)

	out, err := runCmd(t, "fights", "abc")
	if err != nil {
		t.Fatalf("fights: %v", err)
	}
	for _, want := range []string{"Ifrit farm", "Ifrit", "kill", "Garuda", "wipe", "Alice", "fights=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestModules(t *testing.T) {
	setupEnv(t)

	out, err := runCmd(t, "modules")
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if !strings.Contains(out, "jobs:   WAR, WHM") || !strings.Contains(out, "bosses: 1045, ifrit") {
		t.Fatalf("output = %q", out)
	}

	out, err = runCmd(t, "modules", "--job", "WHM", "--boss", "ifrit")
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	for _, want := range []string{" 1. ifritphases", " 4. abc (needs casts, downtime)", " 5. lilies (needs casts)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCache(t *testing.T) {
	dir := setupEnv(t)

	out, err := runCmd(t, "cache")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	if !strings.Contains(out, "cache is empty") {
		t.Fatalf("output = %q", out)
	}

	importFixture(t, dir)
	out, err = runCmd(t, "cache")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	if !strings.Contains(out, "abc") || !strings.Contains(out, "5 cached events") {
		t.Fatalf("output = %q", out)
	}

	if _, err := runCmd(t, "cache", "rm", "abc"); err != nil {
		t.Fatalf("cache rm: %v", err)
	}
	if _, err := runCmd(t, "fights", "abc"); err == nil {
		t.Fatal("fights after rm: expected not found")
	}
}

func TestImport_BadFile(t *testing.T) {
	setupEnv(t)
	if _, err := runCmd(t, "import", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
