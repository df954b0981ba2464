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

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

func TestValueEqualIsKindStrict(t *testing.T) {
	require.False(t, rule.Int(1).Equal(rule.Float(1)))
	require.False(t, rule.Int(1).Equal(rule.String("1")))
	require.True(t, rule.Int(1).Equal(rule.Int(1)))
	require.True(t, rule.Null.Equal(rule.Null))
}

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    rule.Value
		want bool
	}{
		{"null", rule.Null, false},
		{"zero int", rule.Int(0), false},
		{"nonzero int", rule.Int(1), true},
		{"zero float", rule.Float(0), false},
		{"empty string", rule.String(""), false},
		{"nonzero string", rule.String("0"), true},
		{"empty array", rule.Array(), false},
		{"nonempty array", rule.Array(rule.Int(1)), true},
		{"empty object", rule.Object(map[string]rule.Value{}), false},
		{"nonempty object", rule.Object(map[string]rule.Value{"k": rule.Int(1)}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestValueFromGoRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"a": 1.0,
		"b": []interface{}{"x", "y"},
		"c": nil,
		"d": true,
	}
	v := rule.FromGo(in)
	require.Equal(t, rule.KindObject, v.Kind())
	back := v.ToGo().(map[string]interface{})
	require.Equal(t, in["a"], back["a"])
	require.Equal(t, in["b"], back["b"])
	require.Nil(t, back["c"])
	require.Equal(t, in["d"], back["d"])
}

func TestValueToNumberParsesStrings(t *testing.T) {
	n, err := rule.String("42").ToNumber()
	require.NoError(t, err)
	require.Equal(t, rule.KindInt, n.Kind())
	require.Equal(t, int64(42), n.AsInt())

	n, err = rule.String("3.5").ToNumber()
	require.NoError(t, err)
	require.Equal(t, rule.KindFloat, n.Kind())
	require.InDelta(t, 3.5, n.AsFloat(), 0.0001)
}

func TestValueToNumberRejectsGarbage(t *testing.T) {
	_, err := rule.String("not-a-number").ToNumber()
	require.Error(t, err)
	require.True(t, rule.ErrNotANumber.Is(err))
}

func TestValueToDecimalWidensIntAndFloat(t *testing.T) {
	d, err := rule.Int(7).ToDecimal()
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(7).Equal(d))

	d, err = rule.Float(2.5).ToDecimal()
	require.NoError(t, err)
	require.True(t, decimal.NewFromFloat(2.5).Equal(d))
}

func TestValueToStringContext(t *testing.T) {
	require.Equal(t, "", rule.Null.ToStringContext())
	require.Equal(t, "true", rule.Bool(true).ToStringContext())
	require.Equal(t, "3", rule.Int(3).ToStringContext())
	require.Equal(t, "a,b", rule.Array(rule.String("a"), rule.String("b")).ToStringContext())
}
