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

// Package ops implements the operator semantics of spec.md §4.6: the
// arithmetic/comparison/logic/array/string/data behavior shared verbatim
// between the Tier-0 interpreter (rule/expression) and the Tier-1 bytecode
// VM (rule/vm), so the two tiers agree by construction (spec.md §8
// "Universal invariants").
package ops

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// numClass classifies a numeric Value for the widening rules below.
type numClass int

const (
	classInt numClass = iota
	classFloat
	classDecimal
)

func classify(v rule.Value) numClass {
	switch v.Kind() {
	case rule.KindFloat:
		return classFloat
	case rule.KindDecimal:
		return classDecimal
	default:
		return classInt
	}
}

// widenAll computes the result class over all operands per spec.md §4.1 and DESIGN.md's
// pinned choice: Decimal absorbs Int, but any Float operand anywhere
// widens the result to Float.
func widenAll(classes []numClass) numClass {
	hasFloat, hasDecimal := false, false
	for _, c := range classes {
		switch c {
		case classFloat:
			hasFloat = true
		case classDecimal:
			hasDecimal = true
		}
	}
	if hasFloat {
		return classFloat
	}
	if hasDecimal {
		return classDecimal
	}
	return classInt
}

func toNumbers(vs []rule.Value) ([]rule.Value, error) {
	out := make([]rule.Value, len(vs))
	for i, v := range vs {
		n, err := v.ToNumber()
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func resultClass(ns []rule.Value) numClass {
	classes := make([]numClass, len(ns))
	for i, n := range ns {
		classes[i] = classify(n)
	}
	return widenAll(classes)
}

func asFloat(v rule.Value) float64 {
	switch v.Kind() {
	case rule.KindInt:
		return float64(v.AsInt())
	case rule.KindFloat:
		return v.AsFloat()
	case rule.KindDecimal:
		f, _ := v.AsDecimal().Float64()
		return f
	}
	return 0
}

func asDecimal(v rule.Value) decimal.Decimal {
	switch v.Kind() {
	case rule.KindInt:
		return decimal.NewFromInt(v.AsInt())
	case rule.KindFloat:
		return decimal.NewFromFloat(v.AsFloat())
	case rule.KindDecimal:
		return v.AsDecimal()
	}
	return decimal.Zero
}

// foldNumeric reduces ns (already coerced to numeric Values) pairwise with
// intFn/floatFn/decFn chosen by the widened result class.
func foldNumeric(ns []rule.Value, intFn func(a, b int64) int64, floatFn func(a, b float64) float64, decFn func(a, b decimal.Decimal) decimal.Decimal) rule.Value {
	class := resultClass(ns)
	switch class {
	case classInt:
		acc := ns[0].AsInt()
		for _, n := range ns[1:] {
			acc = intFn(acc, n.AsInt())
		}
		return rule.Int(acc)
	case classFloat:
		acc := asFloat(ns[0])
		for _, n := range ns[1:] {
			acc = floatFn(acc, asFloat(n))
		}
		return rule.Float(acc)
	default:
		acc := asDecimal(ns[0])
		for _, n := range ns[1:] {
			acc = decFn(acc, asDecimal(n))
		}
		return rule.Decim(acc)
	}
}

// Add implements "+": variadic sum.
func Add(vs ...rule.Value) (rule.Value, error) {
	ns, err := toNumbers(vs)
	if err != nil {
		return rule.Value{}, err
	}
	if len(ns) == 0 {
		return rule.Int(0), nil
	}
	return foldNumeric(ns,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b },
		func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) },
	), nil
}

// Sub implements "-": unary negation with one argument, left-to-right
// subtraction with two or more.
func Sub(vs ...rule.Value) (rule.Value, error) {
	ns, err := toNumbers(vs)
	if err != nil {
		return rule.Value{}, err
	}
	if len(ns) == 1 {
		return Neg(ns[0])
	}
	return foldNumeric(ns,
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b },
		func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) },
	), nil
}

// Mul implements "*": variadic product.
func Mul(vs ...rule.Value) (rule.Value, error) {
	ns, err := toNumbers(vs)
	if err != nil {
		return rule.Value{}, err
	}
	if len(ns) == 0 {
		return rule.Int(1), nil
	}
	return foldNumeric(ns,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b },
		func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) },
	), nil
}

// Div implements "/": exactly two operands. Division by zero raises
// rule.ErrDivisionByZero; the engine never returns infinities (spec.md
// §4.1).
func Div(a, b rule.Value) (rule.Value, error) {
	ns, err := toNumbers([]rule.Value{a, b})
	if err != nil {
		return rule.Value{}, err
	}
	if isZero(ns[1]) {
		return rule.Value{}, rule.ErrDivisionByZero.New()
	}
	return foldNumeric(ns,
		func(x, y int64) int64 { return x / y },
		func(x, y float64) float64 { return x / y },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Div(y) },
	), nil
}

// Mod implements "%": exactly two operands, same zero-divisor policy as
// Div.
func Mod(a, b rule.Value) (rule.Value, error) {
	ns, err := toNumbers([]rule.Value{a, b})
	if err != nil {
		return rule.Value{}, err
	}
	if isZero(ns[1]) {
		return rule.Value{}, rule.ErrDivisionByZero.New()
	}
	return foldNumeric(ns,
		func(x, y int64) int64 { return x % y },
		func(x, y float64) float64 { return float64(int64(x) % int64(y)) },
		func(x, y decimal.Decimal) decimal.Decimal { return x.Mod(y) },
	), nil
}

func isZero(v rule.Value) bool {
	switch v.Kind() {
	case rule.KindInt:
		return v.AsInt() == 0
	case rule.KindFloat:
		return v.AsFloat() == 0
	case rule.KindDecimal:
		return v.AsDecimal().IsZero()
	}
	return false
}

// Neg implements unary negation.
func Neg(v rule.Value) (rule.Value, error) {
	n, err := v.ToNumber()
	if err != nil {
		return rule.Value{}, err
	}
	switch n.Kind() {
	case rule.KindInt:
		return rule.Int(-n.AsInt()), nil
	case rule.KindFloat:
		return rule.Float(-n.AsFloat()), nil
	default:
		return rule.Decim(n.AsDecimal().Neg()), nil
	}
}

// Min implements variadic "min".
func Min(vs ...rule.Value) (rule.Value, error) {
	return extremum(vs, true)
}

// Max implements variadic "max".
func Max(vs ...rule.Value) (rule.Value, error) {
	return extremum(vs, false)
}

func extremum(vs []rule.Value, wantMin bool) (rule.Value, error) {
	ns, err := toNumbers(vs)
	if err != nil {
		return rule.Value{}, err
	}
	if len(ns) == 0 {
		return rule.Value{}, rule.ErrTypeMismatch.New("min/max requires at least one argument")
	}
	best := ns[0]
	for _, n := range ns[1:] {
		less, err := lessThan(n, best)
		if err != nil {
			return rule.Value{}, err
		}
		if less == wantMin {
			best = n
		}
	}
	return best, nil
}

// lessThan compares two already-numeric Values under the widened class.
func lessThan(a, b rule.Value) (bool, error) {
	ns := []rule.Value{a, b}
	switch resultClass(ns) {
	case classInt:
		return a.AsInt() < b.AsInt(), nil
	case classFloat:
		return asFloat(a) < asFloat(b), nil
	default:
		return asDecimal(a).LessThan(asDecimal(b)), nil
	}
}

// FormatMinimalFloat renders a float with the minimum digits that
// round-trip its value, the same formatting Value.ToStringContext applies
// to a Float in the `cat` string context (spec.md §4.1).
func FormatMinimalFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// SortStrings is a tiny shared helper that orders strings the way the
// string-context rendering of Object values orders their keys
// (deterministic key ordering for debugging output).
func SortStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
