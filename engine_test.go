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

package ruleengine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ruleengine "github.com/ayushmaanbhav/product-farm-sub000"
	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

type memStore struct {
	products map[string]rule.Product
}

func (m memStore) ProductByID(id string) (rule.Product, bool) {
	p, ok := m.products[id]
	return p, ok
}

func premiumProduct() rule.Product {
	return rule.Product{
		ID:   "insurance",
		Name: "Term Insurance",
		Rules: []rule.RuleDefinition{
			{
				ID:      "base_premium",
				Inputs:  []string{"applicant.age", "coverage_amount"},
				Outputs: []string{"base_premium"},
				Enabled: true,
				Order:   0,
				Logic: map[string]interface{}{
					"*": []interface{}{
						map[string]interface{}{"var": "coverage_amount"},
						map[string]interface{}{"if": []interface{}{
							map[string]interface{}{">": []interface{}{map[string]interface{}{"var": "applicant.age"}, 50.0}},
							0.02,
							0.01,
						}},
					},
				},
			},
			{
				ID:      "final_premium",
				Inputs:  []string{"base_premium"},
				Outputs: []string{"final_premium"},
				Enabled: true,
				Order:   1,
				Logic: map[string]interface{}{
					"+": []interface{}{map[string]interface{}{"var": "base_premium"}, 5.0},
				},
			},
		},
	}
}

func TestEvaluateProductRunsFullPipeline(t *testing.T) {
	store := memStore{products: map[string]rule.Product{"insurance": premiumProduct()}}
	engine := ruleengine.NewDefault(store)

	inputs := map[string]rule.Value{
		"applicant.age":   rule.Int(60),
		"coverage_amount": rule.Int(100000),
	}
	result, err := engine.EvaluateProduct("insurance", inputs, rule.EvalOptions{})
	require.NoError(t, err)
	require.Len(t, result.PerRule, 2)
	require.Equal(t, 2000.0, result.Outputs["base_premium"].AsFloat())
	require.Equal(t, 2005.0, result.Outputs["final_premium"].AsFloat())
	require.Equal(t, 2, result.Levels)
	require.GreaterOrEqual(t, result.TotalNanos, int64(0))
}

func TestEvaluateProductUnknownProduct(t *testing.T) {
	engine := ruleengine.NewDefault(memStore{products: map[string]rule.Product{}})
	_, err := engine.EvaluateProduct("nope", nil, rule.EvalOptions{})
	require.Error(t, err)
	require.True(t, rule.ErrUnknownProduct.Is(err))
}

func TestBuildExecutionPlanReportsCycle(t *testing.T) {
	cyclic := rule.Product{
		ID: "cyclic",
		Rules: []rule.RuleDefinition{
			{ID: "r1", Inputs: []string{"b"}, Outputs: []string{"a"}, Enabled: true, Logic: map[string]interface{}{"var": "b"}},
			{ID: "r2", Inputs: []string{"a"}, Outputs: []string{"b"}, Enabled: true, Logic: map[string]interface{}{"var": "a"}},
		},
	}
	store := memStore{products: map[string]rule.Product{"cyclic": cyclic}}
	engine := ruleengine.NewDefault(store)

	plan, err := engine.BuildExecutionPlan("cyclic")
	require.NoError(t, err)
	require.True(t, plan.HasCycle)
	require.ElementsMatch(t, []string{"r1", "r2"}, plan.CycleIDs)
}

func TestBuildExecutionPlanReportsEdges(t *testing.T) {
	store := memStore{products: map[string]rule.Product{"insurance": premiumProduct()}}
	engine := ruleengine.NewDefault(store)

	plan, err := engine.BuildExecutionPlan("insurance")
	require.NoError(t, err)
	require.False(t, plan.HasCycle)
	require.Len(t, plan.Levels, 2)
	require.Equal(t, [][2]string{{"base_premium", "final_premium"}}, plan.Edges)
}

func TestValidateRulesCatchesParseError(t *testing.T) {
	broken := rule.Product{
		ID: "broken",
		Rules: []rule.RuleDefinition{
			{ID: "r1", Outputs: []string{"out"}, Enabled: true, Logic: map[string]interface{}{"no_such_op": []interface{}{1.0}}},
		},
	}
	store := memStore{products: map[string]rule.Product{"broken": broken}}
	engine := ruleengine.NewDefault(store)

	report, err := engine.ValidateRules("broken")
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.NotEmpty(t, report.Errors)
}

func TestValidateRulesAcceptsWellFormedProduct(t *testing.T) {
	store := memStore{products: map[string]rule.Product{"insurance": premiumProduct()}}
	engine := ruleengine.NewDefault(store)

	report, err := engine.ValidateRules("insurance")
	require.NoError(t, err)
	require.True(t, report.Valid)
	require.Empty(t, report.Errors)
	require.Len(t, report.Plan.Levels, 2)
}

func TestEvaluateRuleIsStandaloneFromProductCaches(t *testing.T) {
	engine := ruleengine.NewDefault(memStore{products: map[string]rule.Product{}})
	ctx := rule.NewExecutionContext(map[string]rule.Value{"x": rule.Int(10)})
	r := rule.RuleDefinition{
		ID:      "standalone",
		Outputs: []string{"y"},
		Logic:   map[string]interface{}{"+": []interface{}{map[string]interface{}{"var": "x"}, 1.0}},
	}
	res, err := engine.EvaluateRule(r, ctx)
	require.NoError(t, err)
	require.Equal(t, int64(11), res.Value.AsInt())
	require.Equal(t, rule.Tier0, res.Tier)
}
