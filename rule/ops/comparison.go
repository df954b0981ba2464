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

package ops

import "github.com/ayushmaanbhav/product-farm-sub000/rule"

// LooseEq implements "==": numeric coercion is applied before comparing,
// except that null == null is defined true directly and two different
// non-numeric kinds (e.g. string vs object) compare unequal rather than
// erroring (spec.md §4.1).
func LooseEq(a, b rule.Value) (bool, error) {
	if a.Kind() == rule.KindNull && b.Kind() == rule.KindNull {
		return true, nil
	}
	if a.Kind() == rule.KindNull || b.Kind() == rule.KindNull {
		return false, nil
	}
	if canCompareDirectly(a, b) {
		return a.Equal(b), nil
	}
	an, aerr := a.ToNumber()
	bn, berr := b.ToNumber()
	if aerr != nil || berr != nil {
		return false, nil
	}
	eq, err := numericEqual(an, bn)
	if err != nil {
		return false, err
	}
	return eq, nil
}

// LooseNe implements "!=": the negation of LooseEq.
func LooseNe(a, b rule.Value) (bool, error) {
	eq, err := LooseEq(a, b)
	if err != nil {
		return false, err
	}
	return !eq, nil
}

// canCompareDirectly reports whether a and b are both non-numeric kinds of
// the same Kind, so strict Value.Equal already implements the desired
// loose-equality behavior without coercion (e.g. two strings, two arrays).
func canCompareDirectly(a, b rule.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case rule.KindString, rule.KindArray, rule.KindObject, rule.KindBool:
		return true
	default:
		return false
	}
}

func numericEqual(a, b rule.Value) (bool, error) {
	ns := []rule.Value{a, b}
	switch resultClass(ns) {
	case classInt:
		return a.AsInt() == b.AsInt(), nil
	case classFloat:
		return asFloat(a) == asFloat(b), nil
	default:
		return asDecimal(a).Equal(asDecimal(b)), nil
	}
}

// StrictEq implements "===": no coercion, different kinds compare unequal.
func StrictEq(a, b rule.Value) bool {
	return a.Equal(b)
}

// StrictNe implements "!==".
func StrictNe(a, b rule.Value) bool {
	return !a.Equal(b)
}

// Lt, Le, Gt, Ge implement "<","<=",">",">=" with numeric coercion
// (spec.md §4.1 numeric context).
func Lt(a, b rule.Value) (bool, error) {
	an, bn, err := coerceNumericPair(a, b)
	if err != nil {
		return false, err
	}
	return lessThan(an, bn)
}

func Le(a, b rule.Value) (bool, error) {
	lt, err := Lt(a, b)
	if err != nil || lt {
		return lt, err
	}
	an, bn, err := coerceNumericPair(a, b)
	if err != nil {
		return false, err
	}
	eq, err := numericEqual(an, bn)
	return eq, err
}

func Gt(a, b rule.Value) (bool, error) {
	an, bn, err := coerceNumericPair(a, b)
	if err != nil {
		return false, err
	}
	return lessThan(bn, an)
}

func Ge(a, b rule.Value) (bool, error) {
	gt, err := Gt(a, b)
	if err != nil || gt {
		return gt, err
	}
	an, bn, err := coerceNumericPair(a, b)
	if err != nil {
		return false, err
	}
	return numericEqual(an, bn)
}

func coerceNumericPair(a, b rule.Value) (rule.Value, rule.Value, error) {
	an, err := a.ToNumber()
	if err != nil {
		return rule.Value{}, rule.Value{}, err
	}
	bn, err := b.ToNumber()
	if err != nil {
		return rule.Value{}, rule.Value{}, err
	}
	return an, bn, nil
}
