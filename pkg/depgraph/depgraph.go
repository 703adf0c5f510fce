// Package depgraph orders nodes by their declared dependencies.
//
// Nodes are given in a caller-chosen order and each names the IDs it depends
// on. Sort produces a topological order: every node appears after all of its
// dependencies. Among nodes that are ready at the same time the one given
// first wins, so the result is deterministic and as close to the input order
// as the dependencies allow.
//
// The set of ready nodes at any step is the graph's frontier: the nodes whose
// dependencies have all been emitted. Ready exposes it directly.
package depgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicate indicates two nodes share an ID.
	ErrDuplicate = errors.New("duplicate node id")
	// ErrUnknownDep indicates a dependency on an ID not present in the graph.
	ErrUnknownDep = errors.New("unknown dependency")
	// ErrCycle indicates the dependencies contain a cycle.
	ErrCycle = errors.New("dependency cycle")
)

// Node is one vertex: an ID plus the IDs it depends on.
type Node struct {
	ID   string
	Deps []string
}

// Graph is a validated set of nodes with resolved dependency edges.
type Graph struct {
	nodes []Node
	index map[string]int
	deps  [][]int // deps[i] are the indexes node i depends on
}

// New validates nodes and resolves their dependency edges. It fails on
// duplicate IDs and on dependencies that name no node. Cycles are reported
// by Sort.
func New(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes: nodes,
		index: make(map[string]int, len(nodes)),
		deps:  make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, n.ID)
		}
		g.index[n.ID] = i
	}
	for i, n := range nodes {
		for _, d := range n.Deps {
			j, ok := g.index[d]
			if !ok {
				return nil, fmt.Errorf("%w: %q depends on %q", ErrUnknownDep, n.ID, d)
			}
			g.deps[i] = append(g.deps[i], j)
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Ready returns, in input order, the indexes of nodes that are not yet done
// but whose dependencies all are.
func (g *Graph) Ready(done []bool) []int {
	var ready []int
	for i := range g.nodes {
		if done[i] {
			continue
		}
		blocked := false
		for _, d := range g.deps[i] {
			if !done[d] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, i)
		}
	}
	return ready
}

// Sort returns node indexes in topological order, picking the earliest ready
// node at each step. A graph with a cycle returns ErrCycle naming one cycle.
func (g *Graph) Sort() ([]int, error) {
	done := make([]bool, len(g.nodes))
	order := make([]int, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		ready := g.Ready(done)
		if len(ready) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(g.findCycle(done), " -> "))
		}
		next := ready[0]
		done[next] = true
		order = append(order, next)
	}
	return order, nil
}

// Sort is a convenience wrapper around New and Graph.Sort that returns the
// nodes themselves.
func Sort(nodes []Node) ([]Node, error) {
	g, err := New(nodes)
	if err != nil {
		return nil, err
	}
	idx, err := g.Sort()
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(idx))
	for i, j := range idx {
		out[i] = nodes[j]
	}
	return out, nil
}

// findCycle walks dependency edges among the nodes left over after Sort
// stalled. Every leftover node has a leftover dependency, so the walk must
// revisit a node; the revisited stretch is a cycle.
func (g *Graph) findCycle(done []bool) []string {
	start := -1
	for i := range g.nodes {
		if !done[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	seen := make(map[int]int)
	var path []int
	for cur := start; ; {
		if at, ok := seen[cur]; ok {
			ids := make([]string, 0, len(path)-at+1)
			for _, i := range path[at:] {
				ids = append(ids, g.nodes[i].ID)
			}
			return append(ids, g.nodes[cur].ID)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, d := range g.deps[cur] {
			if !done[d] {
				next = d
				break
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
}
