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

package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/expression"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/vm"
)

// runBoth compiles term to both tiers and asserts they agree, returning the
// shared result. This is the property spec.md §8 calls "Tier-0/Tier-1
// agreement": every rule, compiled or not, must produce the same value.
func runBoth(t *testing.T, term interface{}, inputs map[string]rule.Value) rule.Value {
	t.Helper()
	tree, err := expression.Parse(term)
	require.NoError(t, err)

	prog, err := bytecode.Compile("t", tree)
	require.NoError(t, err)

	tierCtx := rule.NewExecutionContext(inputs)
	tier1, err := vm.Run(prog, tierCtx)
	require.NoError(t, err)

	tier0Ctx := rule.NewExecutionContext(inputs)
	tier0, err := expression.Eval(tree, tier0Ctx)
	require.NoError(t, err)

	require.True(t, tier0.Equal(tier1), "tier0=%v tier1=%v", tier0.ToGo(), tier1.ToGo())
	return tier1
}

func TestVMArithmetic(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"+": []interface{}{1.0, 2.0, 3.0}}, nil)
	require.Equal(t, int64(6), v.ToGo())
}

func TestVMUnaryMinus(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"-": []interface{}{5.0}}, nil)
	require.Equal(t, int64(-5), v.ToGo())
}

func TestVMVariableLookup(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"var": "x"}, map[string]rule.Value{"x": rule.Int(42)})
	require.Equal(t, int64(42), v.AsInt())
}

func TestVMVarOrDefaultUsesDefaultWhenMissing(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"var": []interface{}{"missing_path", 7.0}}, nil)
	require.Equal(t, int64(7), v.ToGo())
}

func TestVMVarOrDefaultSkipsDefaultWhenPresent(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"var": []interface{}{"x", 7.0}}, map[string]rule.Value{"x": rule.Int(1)})
	require.Equal(t, int64(1), v.AsInt())
}

func TestVMShortCircuitAnd(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"and": []interface{}{false, true}}, nil)
	require.False(t, v.Truthy())
}

func TestVMShortCircuitOr(t *testing.T) {
	v := runBoth(t, map[string]interface{}{"or": []interface{}{false, "hit"}}, nil)
	require.Equal(t, "hit", v.ToGo())
}

func TestVMIfChain(t *testing.T) {
	term := map[string]interface{}{
		"if": []interface{}{
			map[string]interface{}{"<": []interface{}{map[string]interface{}{"var": "n"}, 0.0}},
			"negative",
			map[string]interface{}{"==": []interface{}{map[string]interface{}{"var": "n"}, 0.0}},
			"zero",
			"positive",
		},
	}
	require.Equal(t, "negative", runBoth(t, term, map[string]rule.Value{"n": rule.Int(-1)}).ToGo())
	require.Equal(t, "zero", runBoth(t, term, map[string]rule.Value{"n": rule.Int(0)}).ToGo())
	require.Equal(t, "positive", runBoth(t, term, map[string]rule.Value{"n": rule.Int(1)}).ToGo())
}

func TestVMMap(t *testing.T) {
	term := map[string]interface{}{
		"map": []interface{}{
			map[string]interface{}{"var": "xs"},
			map[string]interface{}{"*": []interface{}{map[string]interface{}{"var": ""}, 2.0}},
		},
	}
	v := runBoth(t, term, map[string]rule.Value{"xs": rule.Array(rule.Int(1), rule.Int(2), rule.Int(3))})
	require.Equal(t, []interface{}{int64(2), int64(4), int64(6)}, v.ToGo())
}

func TestVMFilter(t *testing.T) {
	term := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{"var": "xs"},
			map[string]interface{}{">": []interface{}{map[string]interface{}{"var": ""}, 2.0}},
		},
	}
	v := runBoth(t, term, map[string]rule.Value{"xs": rule.Array(rule.Int(1), rule.Int(2), rule.Int(3))})
	require.Equal(t, []interface{}{int64(3)}, v.ToGo())
}

func TestVMReduce(t *testing.T) {
	term := map[string]interface{}{
		"reduce": []interface{}{
			map[string]interface{}{"var": "xs"},
			map[string]interface{}{"+": []interface{}{map[string]interface{}{"var": "current"}, map[string]interface{}{"var": "accumulator"}}},
			0.0,
		},
	}
	v := runBoth(t, term, map[string]rule.Value{"xs": rule.Array(rule.Int(1), rule.Int(2), rule.Int(3))})
	require.Equal(t, int64(6), v.ToGo())
}

func TestVMAllEmptyArrayIsFalse(t *testing.T) {
	term := map[string]interface{}{
		"all": []interface{}{
			map[string]interface{}{"var": "xs"},
			true,
		},
	}
	v := runBoth(t, term, map[string]rule.Value{"xs": rule.ArraySlice(nil)})
	require.False(t, v.AsBool())
}

func TestVMMissingSome(t *testing.T) {
	term := map[string]interface{}{
		"missing_some": []interface{}{
			1.0,
			[]interface{}{"a", "b"},
		},
	}
	v := runBoth(t, term, map[string]rule.Value{"a": rule.Int(1)})
	require.Equal(t, []interface{}{}, v.ToGo())
}

func TestVMMapInsideMap(t *testing.T) {
	// Each outer element is itself an array; the inner map doubles its
	// elements. Exercises a CallArrayOp body that contains another
	// CallArrayOp, regression coverage for the body-offset bug where a
	// nested CallArrayOp's absolute bodyOffset was indexed into the outer
	// body's re-sliced byte range instead of the whole program.
	term := map[string]interface{}{
		"map": []interface{}{
			map[string]interface{}{"var": "rows"},
			map[string]interface{}{
				"map": []interface{}{
					map[string]interface{}{"var": ""},
					map[string]interface{}{"*": []interface{}{map[string]interface{}{"var": ""}, 2.0}},
				},
			},
		},
	}
	rows := rule.Array(
		rule.Array(rule.Int(1), rule.Int(2)),
		rule.Array(rule.Int(3), rule.Int(4)),
	)
	v := runBoth(t, term, map[string]rule.Value{"rows": rows})
	require.Equal(t, []interface{}{
		[]interface{}{int64(2), int64(4)},
		[]interface{}{int64(6), int64(8)},
	}, v.ToGo())
}

func TestVMFilterInsideMapWithOuterAndInnerBodies(t *testing.T) {
	// The outer map's body is itself multi-instruction (a filter call plus
	// nothing else), so the outer CallArrayOp's body range fully contains
	// the inner CallArrayOp's emitted bytes at a nonzero relative offset.
	term := map[string]interface{}{
		"map": []interface{}{
			map[string]interface{}{"var": "rows"},
			map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"var": ""},
					map[string]interface{}{">": []interface{}{map[string]interface{}{"var": ""}, 1.0}},
				},
			},
		},
	}
	rows := rule.Array(
		rule.Array(rule.Int(1), rule.Int(2), rule.Int(3)),
		rule.Array(rule.Int(0), rule.Int(5)),
	)
	v := runBoth(t, term, map[string]rule.Value{"rows": rows})
	require.Equal(t, []interface{}{
		[]interface{}{int64(2), int64(3)},
		[]interface{}{int64(5)},
	}, v.ToGo())
}

func TestVMStackOverflowOnWideAddition(t *testing.T) {
	// compileVariadic pushes every addend before folding them with one
	// OpAdd, so an addition with more terms than the stack limit overflows
	// before OpAdd ever runs.
	addends := make([]interface{}, bytecode.MaxStackDepth+10)
	for i := range addends {
		addends[i] = 1.0
	}
	term := map[string]interface{}{"+": addends}
	tree, err := expression.Parse(term)
	require.NoError(t, err)
	prog, err := bytecode.Compile("wide", tree)
	require.NoError(t, err)
	_, err = vm.Run(prog, rule.NewExecutionContext(nil))
	require.Error(t, err)
	require.True(t, rule.ErrStackOverflow.Is(err))
}
