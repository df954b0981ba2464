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

package ops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/ops"
)

func TestLooseEqCoercesNumericStrings(t *testing.T) {
	eq, err := ops.LooseEq(rule.String("1"), rule.Int(1))
	require.NoError(t, err)
	require.True(t, eq)
}

func TestLooseEqNullOnlyEqualsNull(t *testing.T) {
	eq, err := ops.LooseEq(rule.Null, rule.Null)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = ops.LooseEq(rule.Null, rule.Int(0))
	require.NoError(t, err)
	require.False(t, eq)
}

func TestLooseEqDifferentNonNumericKindsAreUnequal(t *testing.T) {
	eq, err := ops.LooseEq(rule.String("x"), rule.Array(rule.String("x")))
	require.NoError(t, err)
	require.False(t, eq)
}

func TestStrictEqRequiresSameKind(t *testing.T) {
	require.False(t, ops.StrictEq(rule.String("1"), rule.Int(1)))
	require.True(t, ops.StrictEq(rule.Int(1), rule.Int(1)))
}

func TestLtGtCoerceNumerically(t *testing.T) {
	lt, err := ops.Lt(rule.String("2"), rule.Int(10))
	require.NoError(t, err)
	require.True(t, lt, "string '2' coerces to 2, which is less than 10")

	gt, err := ops.Gt(rule.Int(10), rule.String("2"))
	require.NoError(t, err)
	require.True(t, gt)
}

func TestLeGeIncludeEquality(t *testing.T) {
	le, err := ops.Le(rule.Int(5), rule.Int(5))
	require.NoError(t, err)
	require.True(t, le)

	ge, err := ops.Ge(rule.Int(5), rule.Int(5))
	require.NoError(t, err)
	require.True(t, ge)
}
