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

func TestCatConcatenatesStringContext(t *testing.T) {
	v := ops.Cat(rule.String("x="), rule.Int(3), rule.Bool(true))
	require.Equal(t, "x=3true", v.ToGo())
}

func TestSubstrPositiveStart(t *testing.T) {
	v, err := ops.Substr(rule.String("hello world"), rule.Int(6), nil)
	require.NoError(t, err)
	require.Equal(t, "world", v.ToGo())
}

func TestSubstrNegativeStartCountsFromEnd(t *testing.T) {
	v, err := ops.Substr(rule.String("hello"), rule.Int(-3), nil)
	require.NoError(t, err)
	require.Equal(t, "llo", v.ToGo())
}

func TestSubstrWithPositiveLength(t *testing.T) {
	length := rule.Int(3)
	v, err := ops.Substr(rule.String("hello world"), rule.Int(0), &length)
	require.NoError(t, err)
	require.Equal(t, "hel", v.ToGo())
}

func TestSubstrWithNegativeLengthTrimsFromEnd(t *testing.T) {
	length := rule.Int(-3)
	v, err := ops.Substr(rule.String("hello world"), rule.Int(0), &length)
	require.NoError(t, err)
	require.Equal(t, "hello wo", v.ToGo())
}
