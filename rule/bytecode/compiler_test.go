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

package bytecode_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/expression"
)

func mustParse(t *testing.T, term interface{}) *expression.Node {
	t.Helper()
	n, err := expression.Parse(term)
	require.NoError(t, err)
	return n
}

func TestCompileEndsInReturn(t *testing.T) {
	n := mustParse(t, map[string]interface{}{"+": []interface{}{1.0, 2.0}})
	prog, err := bytecode.Compile("r1", n)
	require.NoError(t, err)
	require.Equal(t, byte(bytecode.OpReturn), prog.Code[len(prog.Code)-1])
	require.Equal(t, "r1", prog.RuleID)
	require.Equal(t, rule.Tier1, prog.ProgramTier())
}

func TestCompileConstantPoolDedups(t *testing.T) {
	n := mustParse(t, map[string]interface{}{"+": []interface{}{5.0, 5.0, 5.0}})
	prog, err := bytecode.Compile("r1", n)
	require.NoError(t, err)
	require.Len(t, prog.Pool, 1, "identical literals should share one constant pool slot")
}

func TestCompileVariableDedupsByPath(t *testing.T) {
	n := mustParse(t, map[string]interface{}{
		"+": []interface{}{
			map[string]interface{}{"var": "a"},
			map[string]interface{}{"var": "a"},
		},
	})
	prog, err := bytecode.Compile("r1", n)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, prog.Vars)
}

func TestCompileUnknownOperator(t *testing.T) {
	_, err := bytecode.Compile("r1", &expression.Node{Kind: expression.NodeOp, Op: "nope"})
	require.Error(t, err)
	require.True(t, rule.ErrCompileError.Is(err))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := mustParse(t, map[string]interface{}{
		"if": []interface{}{
			map[string]interface{}{">": []interface{}{map[string]interface{}{"var": "score"}, 50.0}},
			"pass",
			"fail",
		},
	})
	prog, err := bytecode.Compile("grade", n)
	require.NoError(t, err)

	wire, err := bytecode.Encode(prog)
	require.NoError(t, err)
	require.Equal(t, bytecode.EncodingVersion, wire[0])

	decoded, err := bytecode.Decode("grade", wire)
	require.NoError(t, err)
	require.Equal(t, prog.Code, decoded.Code)
	require.Equal(t, prog.Vars, decoded.Vars)
	require.Len(t, decoded.Pool, len(prog.Pool))
	for i := range prog.Pool {
		require.True(t, prog.Pool[i].Equal(decoded.Pool[i]))
	}
}

func TestEncodeDecodeRoundTripsDecimalPrecision(t *testing.T) {
	d, err := decimal.NewFromString("19.999999999999999999")
	require.NoError(t, err)
	n := &expression.Node{Kind: expression.NodeLiteral, Literal: rule.Decim(d)}
	prog, err := bytecode.Compile("r1", n)
	require.NoError(t, err)
	wire, err := bytecode.Encode(prog)
	require.NoError(t, err)
	decoded, err := bytecode.Decode("r1", wire)
	require.NoError(t, err)
	require.Equal(t, prog.Pool[0].ToGo(), decoded.Pool[0].ToGo())
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := bytecode.Decode("r1", []byte{0xFF})
	require.Error(t, err)
	require.True(t, rule.ErrCompileError.Is(err))
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := bytecode.Decode("r1", nil)
	require.Error(t, err)
	require.True(t, rule.ErrCompileError.Is(err))
}
