package depgraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func n(id string, deps ...string) Node { return Node{ID: id, Deps: deps} }

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, nd := range nodes {
		out[i] = nd.ID
	}
	return out
}

func TestSort_Empty(t *testing.T) {
	out, err := Sort(nil)
	if err != nil {
		t.Fatalf("Sort(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d nodes, want 0", len(out))
	}
}

func TestSort_IndependentKeepsInputOrder(t *testing.T) {
	out, err := Sort([]Node{n("c"), n("a"), n("b")})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, ids(out)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_DependencyMovesAhead(t *testing.T) {
	// abc is declared first but needs casts and downtime.
	out, err := Sort([]Node{n("abc", "casts", "downtime"), n("casts"), n("downtime")})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"casts", "downtime", "abc"}, ids(out)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_Diamond(t *testing.T) {
	out, err := Sort([]Node{
		n("d", "b", "c"),
		n("b", "a"),
		n("c", "a"),
		n("a"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, ids(out)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_EveryNodeAfterItsDeps(t *testing.T) {
	nodes := []Node{
		n("f", "e"),
		n("e", "b", "d"),
		n("d"),
		n("c", "a"),
		n("b", "a"),
		n("a"),
	}
	out, err := Sort(nodes)
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int)
	for i, nd := range out {
		pos[nd.ID] = i
	}
	for _, nd := range nodes {
		for _, d := range nd.Deps {
			if pos[d] >= pos[nd.ID] {
				t.Errorf("%s at %d not after dependency %s at %d", nd.ID, pos[nd.ID], d, pos[d])
			}
		}
	}
}

func TestSort_Errors(t *testing.T) {
	cases := []struct {
		name  string
		nodes []Node
		want  error
	}{
		{"duplicate", []Node{n("a"), n("a")}, ErrDuplicate},
		{"unknown dep", []Node{n("a", "missing")}, ErrUnknownDep},
		{"self loop", []Node{n("a", "a")}, ErrCycle},
		{"two cycle", []Node{n("a", "b"), n("b", "a")}, ErrCycle},
		{"cycle behind a root", []Node{n("root"), n("x", "root", "z"), n("y", "x"), n("z", "y")}, ErrCycle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sort(tc.nodes)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Sort error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSort_CycleMessageNamesMembers(t *testing.T) {
	_, err := Sort([]Node{n("ok"), n("a", "b"), n("b", "c"), n("c", "a")})
	if err == nil {
		t.Fatal("expected cycle error")
	}
	msg := err.Error()
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(msg, id) {
			t.Errorf("cycle message %q missing %q", msg, id)
		}
	}
	if strings.Contains(msg, "ok") {
		t.Errorf("cycle message %q should not mention acyclic node", msg)
	}
}

func TestReady_Frontier(t *testing.T) {
	g, err := New([]Node{n("a"), n("b", "a"), n("c"), n("d", "b", "c")})
	if err != nil {
		t.Fatal(err)
	}
	done := make([]bool, g.Len())
	if diff := cmp.Diff([]int{0, 2}, g.Ready(done)); diff != "" {
		t.Fatalf("initial frontier (-want +got):\n%s", diff)
	}
	done[0] = true
	if diff := cmp.Diff([]int{1, 2}, g.Ready(done)); diff != "" {
		t.Fatalf("frontier after a (-want +got):\n%s", diff)
	}
	done[1], done[2] = true, true
	if diff := cmp.Diff([]int{3}, g.Ready(done)); diff != "" {
		t.Fatalf("frontier after a,b,c (-want +got):\n%s", diff)
	}
}
