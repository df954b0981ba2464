// Copyright 2026 Product-FARM contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dag builds the rule dependency graph of a product and assigns
// level-parallel execution order (spec.md §4.8): rules whose declared
// outputs feed another rule's declared inputs become edges, cycles are
// rejected, and the remaining DAG is partitioned into levels that the
// executor (rule/ruleexec) can run with disjoint-output parallelism.
package dag

import (
	"sort"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// Level is one barrier's worth of independently runnable rule ids, already
// sorted by (order_index, id) for a deterministic, stable order.
type Level []string

// Plan is the ordered output of Build: level 0 first, each level an ordered
// list of rule ids.
type Plan struct {
	Levels []Level
	// Edges lists every dependency edge as [producer, consumer] rule ids:
	// producer declares an output that consumer declares as an input
	// (spec.md §6's BuildExecutionPlan return shape). Sorted for a
	// deterministic, stable order.
	Edges [][2]string
}

// RuleIDs flattens the plan back into level order, useful for reporting.
func (p Plan) RuleIDs() []string {
	var out []string
	for _, l := range p.Levels {
		out = append(out, l...)
	}
	return out
}

type node struct {
	rule        rule.RuleDefinition
	predecessors map[string]bool
	successors   map[string]bool
}

// Build runs spec.md §4.8's five steps over rules (a product's full rule
// set; disabled rules are dropped before graph construction). It returns
// rule.ErrDuplicateOutput if two enabled rules declare the same output, or
// rule.ErrCycleDetected (carrying the offending rule ids) if the graph is
// not acyclic.
func Build(rules []rule.RuleDefinition) (Plan, error) {
	nodes, err := buildGraph(rules)
	if err != nil {
		return Plan{}, err
	}

	if cycle := findCycle(nodes); cycle != nil {
		return Plan{}, rule.ErrCycleDetected.New(cycle)
	}

	levels := assignLevels(nodes)
	return Plan{Levels: levels, Edges: collectEdges(nodes)}, nil
}

// collectEdges flattens each node's successor set into sorted [producer,
// consumer] pairs.
func collectEdges(nodes map[string]*node) [][2]string {
	var edges [][2]string
	for id, n := range nodes {
		for succ := range n.successors {
			edges = append(edges, [2]string{id, succ})
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a][0] != edges[b][0] {
			return edges[a][0] < edges[b][0]
		}
		return edges[a][1] < edges[b][1]
	})
	return edges
}

// CycleIDs reports the rule ids left unordered by a dependency cycle among
// rules' enabled subset (the rules on the cycle and any rule downstream of
// one), or nil if the graph is acyclic (including when
// rules themselves are malformed, e.g. a duplicate output — that case is
// not a cycle and is left for Build to report). Exposed separately from
// Build so a caller that already knows Build failed with ErrCycleDetected
// (spec.md §6 BuildExecutionPlan, ValidateRules) can recover the offending
// ids without unpacking the error.
func CycleIDs(rules []rule.RuleDefinition) []string {
	nodes, err := buildGraph(rules)
	if err != nil {
		return nil
	}
	return findCycle(nodes)
}

// buildGraph filters rules to the enabled subset and wires predecessor/
// successor edges from declared outputs to the rules that declare them as
// inputs (spec.md §4.8 steps 1-2).
func buildGraph(rules []rule.RuleDefinition) (map[string]*node, error) {
	enabled := make([]rule.RuleDefinition, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}

	producerOf, err := indexOutputs(enabled)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*node, len(enabled))
	for _, r := range enabled {
		nodes[r.ID] = &node{rule: r, predecessors: map[string]bool{}, successors: map[string]bool{}}
	}
	for _, r := range enabled {
		for _, in := range r.Inputs {
			producerID, ok := producerOf[in]
			if !ok || producerID == r.ID {
				// Not produced by any enabled rule (or self-referential,
				// which cannot happen for a well-formed rule): treated as
				// caller-supplied (spec.md §4.8 step 2).
				continue
			}
			nodes[producerID].successors[r.ID] = true
			nodes[r.ID].predecessors[producerID] = true
		}
	}
	return nodes, nil
}

// indexOutputs maps each declared output path to the id of the one enabled
// rule that produces it, raising DuplicateOutput on conflict.
func indexOutputs(enabled []rule.RuleDefinition) (map[string]string, error) {
	producerOf := make(map[string]string)
	for _, r := range enabled {
		for _, out := range r.Outputs {
			if existing, ok := producerOf[out]; ok {
				return nil, rule.ErrDuplicateOutput.New(out, existing, r.ID)
			}
			producerOf[out] = r.ID
		}
	}
	return producerOf, nil
}

// findCycle runs Kahn's algorithm (spec.md §4.8 step 3): repeatedly remove
// zero-in-degree nodes; whatever remains afterward is on a cycle or
// depends, directly or transitively, on a rule that is.
// It returns a sorted slice of those remaining ids, or nil if the graph is
// acyclic.
func findCycle(nodes map[string]*node) []string {
	inDegree := make(map[string]int, len(nodes))
	for id, n := range nodes {
		inDegree[id] = len(n.predecessors)
	}

	var queue []string
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed++
		var freed []string
		for succ := range nodes[id].successors {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				freed = append(freed, succ)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if removed == len(nodes) {
		return nil
	}
	var remaining []string
	for id, d := range inDegree {
		if d > 0 {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	return remaining
}

// assignLevels implements spec.md §4.8 step 4-5: level(v) = 1 + max level
// of predecessors (0 for sources), computed by repeated relaxation since
// the graph is already known acyclic; ties within a level break on
// (order_index, id).
func assignLevels(nodes map[string]*node) []Level {
	level := make(map[string]int, len(nodes))
	var order []string
	for id := range nodes {
		order = append(order, id)
	}
	sort.Strings(order)

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			n := nodes[id]
			want := 0
			for pred := range n.predecessors {
				if l := level[pred] + 1; l > want {
					want = l
				}
			}
			if want > level[id] {
				level[id] = want
				changed = true
			}
		}
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}
	levels := make([]Level, maxLevel+1)
	for _, id := range order {
		l := level[id]
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		l := levels[i]
		sort.Slice(l, func(a, b int) bool {
			ra, rb := nodes[l[a]].rule, nodes[l[b]].rule
			if ra.Order != rb.Order {
				return ra.Order < rb.Order
			}
			return ra.ID < rb.ID
		})
	}
	return levels
}
