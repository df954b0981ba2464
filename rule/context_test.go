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

package rule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

func TestExecutionContextGetFallsBackInputsThenDefault(t *testing.T) {
	ctx := rule.NewExecutionContext(map[string]rule.Value{"a": rule.Int(1)})
	v, err := ctx.Get("a", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.AsInt())

	def := rule.Int(99)
	v, err = ctx.Get("missing", &def)
	require.NoError(t, err)
	require.Equal(t, int64(99), v.AsInt())

	_, err = ctx.Get("missing", nil)
	require.Error(t, err)
	require.True(t, rule.ErrVarNotFound.Is(err))
}

func TestExecutionContextDerivedShadowsInputs(t *testing.T) {
	ctx := rule.NewExecutionContext(map[string]rule.Value{"a": rule.Int(1)})
	ctx.Set("a", rule.Int(2))
	v, err := ctx.Get("a", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), v.AsInt())
}

func TestExecutionContextDottedPathDescendsObjectsAndArrays(t *testing.T) {
	ctx := rule.NewExecutionContext(map[string]rule.Value{
		"applicant": rule.Object(map[string]rule.Value{
			"age":   rule.Int(30),
			"pets":  rule.Array(rule.String("cat"), rule.String("dog")),
		}),
	})
	v, err := ctx.Get("applicant.age", nil)
	require.NoError(t, err)
	require.Equal(t, int64(30), v.AsInt())

	v, err = ctx.Get("applicant.pets.1", nil)
	require.NoError(t, err)
	require.Equal(t, "dog", v.AsString())
}

func TestExecutionContextHasDoesNotError(t *testing.T) {
	ctx := rule.NewExecutionContext(map[string]rule.Value{"a": rule.Int(1)})
	require.True(t, ctx.Has("a"))
	require.False(t, ctx.Has("b"))
}

func TestExecutionContextOutputsSnapshotsDerived(t *testing.T) {
	ctx := rule.NewExecutionContext(nil)
	ctx.Set("x", rule.Int(1))
	out := ctx.Outputs()
	require.Equal(t, int64(1), out["x"].AsInt())
	ctx.Set("y", rule.Int(2))
	require.NotContains(t, out, "y", "Outputs must return a snapshot, not a live view")
}

func TestExecutionContextPastDeadline(t *testing.T) {
	ctx := rule.NewExecutionContext(nil)
	require.False(t, ctx.PastDeadline(), "zero deadline means no deadline")
	ctx.WithDeadline(time.Now().Add(-time.Second))
	require.True(t, ctx.PastDeadline())
}
