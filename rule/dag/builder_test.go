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

package dag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/dag"
)

func mkRule(id string, inputs, outputs []string, order int) rule.RuleDefinition {
	return rule.RuleDefinition{ID: id, Inputs: inputs, Outputs: outputs, Enabled: true, Order: order}
}

func TestBuildLevelsChain(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r3", []string{"b"}, []string{"c"}, 2),
		mkRule("r1", []string{"a"}, []string{"b"}, 0),
		mkRule("r2", []string{"c"}, []string{"d"}, 1),
	}
	plan, err := dag.Build(rules)
	require.NoError(t, err)
	require.Equal(t, []dag.Level{{"r1"}, {"r3"}, {"r2"}}, plan.Levels)
	require.Equal(t, [][2]string{{"r1", "r3"}, {"r3", "r2"}}, plan.Edges)
}

func TestBuildIndependentRulesShareLevel(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("b", []string{"x"}, []string{"out_b"}, 1),
		mkRule("a", []string{"x"}, []string{"out_a"}, 0),
	}
	plan, err := dag.Build(rules)
	require.NoError(t, err)
	require.Len(t, plan.Levels, 1)
	require.Equal(t, dag.Level{"a", "b"}, plan.Levels[0])
	require.Empty(t, plan.Edges, "x is caller-supplied, not produced by either rule")
}

func TestBuildDisabledRuleExcluded(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r1", []string{"a"}, []string{"b"}, 0),
		{ID: "r2", Inputs: []string{"b"}, Outputs: []string{"c"}, Enabled: false, Order: 1},
	}
	plan, err := dag.Build(rules)
	require.NoError(t, err)
	require.Equal(t, []dag.Level{{"r1"}}, plan.Levels)
}

func TestBuildDuplicateOutput(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r1", []string{"a"}, []string{"out"}, 0),
		mkRule("r2", []string{"b"}, []string{"out"}, 1),
	}
	_, err := dag.Build(rules)
	require.Error(t, err)
	require.True(t, rule.ErrDuplicateOutput.Is(err))
}

func TestBuildCycleDetected(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r1", []string{"c"}, []string{"a"}, 0),
		mkRule("r2", []string{"a"}, []string{"b"}, 1),
		mkRule("r3", []string{"b"}, []string{"c"}, 2),
	}
	_, err := dag.Build(rules)
	require.Error(t, err)
	require.True(t, rule.ErrCycleDetected.Is(err))
	require.ElementsMatch(t, []string{"r1", "r2", "r3"}, dag.CycleIDs(rules))
}

func TestBuildUnproducedInputIsCallerSupplied(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r1", []string{"caller_supplied"}, []string{"out"}, 0),
	}
	plan, err := dag.Build(rules)
	require.NoError(t, err)
	require.Equal(t, []dag.Level{{"r1"}}, plan.Levels)
}

func TestPlanRuleIDsFlattensInLevelOrder(t *testing.T) {
	rules := []rule.RuleDefinition{
		mkRule("r1", []string{"a"}, []string{"b"}, 0),
		mkRule("r2", []string{"b"}, []string{"c"}, 1),
	}
	plan, err := dag.Build(rules)
	require.NoError(t, err)
	require.Equal(t, []string{"r1", "r2"}, plan.RuleIDs())
}
