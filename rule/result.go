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

package rule

import "time"

// EvalOptions configures one EvaluateProduct call (spec.md §6).
type EvalOptions struct {
	// Strict aborts the whole product evaluation on the first rule-level
	// failure instead of recording it and continuing (spec.md §7).
	Strict bool
	// Deadline, if non-zero, is checked at level boundaries and at every
	// backward jump in the VM (spec.md §5).
	Deadline time.Time
	// PromotionThreshold overrides the default tier-promotion invocation
	// count (spec.md §4.9) when positive.
	PromotionThreshold int64
	// MaxWorkers bounds per-level concurrency; non-positive means
	// unbounded (one goroutine per rule in the level).
	MaxWorkers int
}

// EvalResult is EvaluateRule's return value: the rule's produced Value, the
// tier that ran it, and the wall-clock nanoseconds it took.
type EvalResult struct {
	Value         Value
	Tier          Tier
	DurationNanos int64
}

// RuleOutcome reports one rule's invocation within a product evaluation.
type RuleOutcome struct {
	RuleID     string
	Tier       Tier
	StartNanos int64
	EndNanos   int64
	Err        error
}

// ProductResult is EvaluateProduct's return value (spec.md §6, §8
// "outputs contains exactly the union of enabled rules' declared outputs
// whose rule succeeded").
type ProductResult struct {
	Outputs map[string]Value
	PerRule []RuleOutcome
	// Levels is the number of dependency levels the plan ran, i.e.
	// len(ExecutionPlan.Levels).
	Levels int
	// TotalNanos is the wall-clock duration of the whole Execute call,
	// level barriers included.
	TotalNanos int64
}

// ExecutionPlan is BuildExecutionPlan's return value: the level-parallel
// order from rule/dag, or a reported cycle (spec.md §8: "if has_cycle, no
// levels are returned").
type ExecutionPlan struct {
	Levels [][]string
	// Edges lists every dependency edge as [producer, consumer] rule ids
	// (spec.md §6's {levels, edges, has_cycle} return shape).
	Edges    [][2]string
	HasCycle bool
	CycleIDs []string
}

// ValidationReport is ValidateRules' return value: whether the product's
// rule set is well-formed (no duplicate outputs, no cycles, every rule
// parses) along with the plan that would run it.
type ValidationReport struct {
	Valid  bool
	Errors []string
	Plan   ExecutionPlan
}
