// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package refs builds the reference graph between global symbols (variables
// referencing variables, sets referencing states, filters referencing
// states) and validates it: every reference must resolve to a declared
// symbol, and the graph must not exceed the configured depth/cycle bounds.
// Cycles are reported rather than rejected outright — internal/semantic
// decides whether a detected cycle is fatal.
package refs

import (
	"fmt"
	"sort"

	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/sourcemap"
	"github.com/curtisslone/esp/internal/symbols"
)

// Cycle is one strongly connected component of size > 1, or a single node
// with a self-loop, reduced to a path of symbol names starting and ending
// at the same node. Truncated reports that Path is shorter than the true
// cycle because MAX_CYCLE_LENGTH was exceeded.
type Cycle struct {
	Path      []string
	Truncated bool
}

// Result is the outcome of reference validation.
type Result struct {
	// ResolvedEdges maps each referencing symbol to the set of symbols it
	// references, after confirming every one of them is declared.
	ResolvedEdges map[string][]string
	Cycles        []Cycle
	Orphans       []string
}

// Validate walks table's global symbols, builds the reference graph, and
// runs Tarjan's algorithm to find cycles.
func Validate(table *symbols.Table, profile limits.Profile) (Result, []errcode.Diagnostic) {
	var diags []errcode.Diagnostic
	push := func(code errcode.Code, msg string, span sourcemap.Span) {
		diags = append(diags, errcode.Diagnostic{Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column})
	}

	nodes := map[string]bool{}
	edges := map[string][]string{}
	spans := map[string]sourcemap.Span{}

	addNode := func(name string, span sourcemap.Span) {
		nodes[name] = true
		spans[name] = span
	}
	for name, v := range table.Global.Variables {
		addNode(name, v.Span)
	}
	for name, s := range table.Global.States {
		addNode(name, s.Span)
	}
	for name, o := range table.Global.Objects {
		addNode(name, o.Span)
	}
	for name, so := range table.Global.Sets {
		addNode(name, so.Span)
	}
	for name, r := range table.Global.RuntimeOps {
		addNode(name, r.Span)
	}

	resolve := func(from, to string, span sourcemap.Span) {
		if !nodes[to] {
			push("E200", fmt.Sprintf("undefined reference %q from %q", to, from), span)
			return
		}
		edges[from] = append(edges[from], to)
	}

	for name, v := range table.Global.Variables {
		if v.RefName != "" {
			resolve(name, v.RefName, v.Span)
		}
	}
	for name, r := range table.Global.RuntimeOps {
		for _, in := range r.InputVars {
			resolve(name, in, r.Span)
		}
	}
	for name, so := range table.Global.Sets {
		for _, op := range so.Operands {
			resolve(name, op, so.Span)
		}
		for _, f := range so.Filters {
			for _, ref := range f.StateRefs {
				resolve(name, ref, f.Span)
			}
		}
	}

	ctnUsed := map[string]bool{}
	for _, local := range table.Locals {
		for _, ref := range local.StateRefs {
			if !nodes[ref] {
				push("E200", fmt.Sprintf("undefined state reference %q", ref), local.Span)
				continue
			}
			ctnUsed[ref] = true
		}
		for _, ref := range local.ObjectRefs {
			if !nodes[ref] {
				push("E200", fmt.Sprintf("undefined object reference %q", ref), local.Span)
				continue
			}
			ctnUsed[ref] = true
		}
	}

	depthExceeded := false
	for from := range edges {
		if depth := longestChain(from, edges, map[string]int{}, 0); depth > profile.MaxReferenceDepth {
			depthExceeded = true
		}
	}
	if depthExceeded {
		push("E201", "reference chain depth exceeds the configured limit", sourcemap.Span{})
	}

	cycles := tarjanCycles(nodes, edges, profile)

	var orphans []string
	referenced := map[string]bool{}
	for _, tos := range edges {
		for _, to := range tos {
			referenced[to] = true
		}
	}
	for name := range nodes {
		if !referenced[name] && !ctnUsed[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)

	return Result{ResolvedEdges: edges, Cycles: cycles, Orphans: orphans}, diags
}

func longestChain(node string, edges map[string][]string, seen map[string]int, depth int) int {
	if d, ok := seen[node]; ok && d >= depth {
		return d
	}
	seen[node] = depth
	max := depth
	for _, next := range edges[node] {
		if d := longestChain(next, edges, seen, depth+1); d > max {
			max = d
		}
	}
	return max
}

// tarjanCycles runs Tarjan's strongly-connected-components algorithm and
// reduces every nontrivial SCC (or single self-loop) to one reported Cycle,
// truncated to MAX_CYCLE_LENGTH and capped at MAX_REPORTED_CYCLES.
func tarjanCycles(nodes map[string]bool, edges map[string][]string, profile limits.Profile) []Cycle {
	var names []string
	for n := range nodes {
		names = append(names, n)
	}
	sort.Strings(names)

	index := map[string]int{}
	low := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	counter := 0
	var sccs [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, seen := index[w]; !seen {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range names {
		if _, seen := index[n]; !seen {
			strongConnect(n)
		}
	}

	var cycles []Cycle
	for _, scc := range sccs {
		if len(cycles) >= profile.MaxReportedCycles {
			break
		}
		isCycle := len(scc) > 1
		if len(scc) == 1 {
			for _, w := range edges[scc[0]] {
				if w == scc[0] {
					isCycle = true
				}
			}
		}
		if !isCycle {
			continue
		}
		path := minimalCycle(scc, edges)
		truncated := false
		if len(path) > profile.MaxCycleLength {
			path = path[:profile.MaxCycleLength]
			truncated = true
		}
		full := append(append([]string{}, path...), path[0])
		cycles = append(cycles, Cycle{Path: full, Truncated: truncated})
	}
	return cycles
}

// minimalCycle finds the shortest cycle that lies entirely within scc, a
// strongly connected component's node set. A single self-looped node
// returns itself. Otherwise it restricts the graph to edges between SCC
// members, then for each candidate start node runs a BFS over that
// subgraph tracking parents: BFS visits nodes in non-decreasing distance
// order, so the first edge it finds back to the start node closes the
// shortest cycle through that node. The minimum over all candidate starts
// is the SCC's minimal cycle (spec.md §3/§4.6), not merely the SCC's full
// node list.
func minimalCycle(scc []string, edges map[string][]string) []string {
	if len(scc) == 1 {
		return []string{scc[0]}
	}

	members := map[string]bool{}
	for _, n := range scc {
		members[n] = true
	}
	sub := map[string][]string{}
	for _, n := range scc {
		for _, w := range edges[n] {
			if members[w] {
				sub[n] = append(sub[n], w)
			}
		}
	}
	for _, neighbors := range sub {
		sort.Strings(neighbors)
	}

	sorted := append([]string{}, scc...)
	sort.Strings(sorted)

	var best []string
	for _, start := range sorted {
		if cyc := shortestCycleFrom(start, sub); cyc != nil {
			if best == nil || len(cyc) < len(best) {
				best = cyc
			}
		}
	}
	if best == nil {
		return sorted
	}
	return best
}

// shortestCycleFrom BFS's sub starting at start, returning the shortest
// path start -> ... -> v where v has an edge back to start, or nil if no
// such cycle exists.
func shortestCycleFrom(start string, sub map[string][]string) []string {
	hasParent := map[string]bool{start: true}
	parent := map[string]string{}
	queue := []string{start}

	buildPath := func(v string) []string {
		path := []string{v}
		for cur := v; cur != start; {
			p := parent[cur]
			path = append(path, p)
			cur = p
		}
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		return path
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range sub[v] {
			if w == start {
				if v == start {
					return []string{start}
				}
				return buildPath(v)
			}
			if !hasParent[w] {
				hasParent[w] = true
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return nil
}
