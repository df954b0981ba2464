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

// Package rule holds the types shared by every tier of the rule evaluation
// core: the tagged Value variant and its coercion rules, the execution
// context, rule/product/attribute definitions, the cached-expression
// lifecycle, and the bounded caches that sit in front of them.
package rule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Kind tags the variant a Value holds. A Value is total: every Kind has a
// defined behavior (coercion or a typed error) under every operator.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged variant over the kinds a rule can produce or consume.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	d    decimal.Decimal
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null is the singular Null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func Decim(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

func Array(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

func ArraySlice(vs []Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

func Object(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindObject, obj: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() bool              { return v.b }
func (v Value) AsInt() int64              { return v.i }
func (v Value) AsFloat() float64          { return v.f }
func (v Value) AsDecimal() decimal.Decimal { return v.d }
func (v Value) AsString() string          { return v.s }
func (v Value) AsArray() []Value          { return v.arr }
func (v Value) AsObject() map[string]Value { return v.obj }

// FromGo converts a plain Go value (as produced by encoding/json.Unmarshal
// into interface{}, or constructed directly by a caller) into a Value. It
// is the boundary between arbitrary host data and the closed Value variant.
func FromGo(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case decimal.Decimal:
		return Decim(t)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromGo(e)
		}
		return ArraySlice(out)
	case []Value:
		return ArraySlice(t)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromGo(e)
		}
		return Object(out)
	case map[string]Value:
		return Object(t)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// ToGo converts a Value back to a plain Go value suitable for JSON
// marshaling or returning to a caller outside the engine.
func (v Value) ToGo() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDecimal:
		return v.d
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToGo()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.ToGo()
		}
		return out
	default:
		return nil
	}
}

// Equal implements strict equality: different kinds never compare equal
// (===/!==, spec.md §4.1).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindDecimal:
		return v.d.Equal(other.d)
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, e := range v.obj {
			o, ok := other.obj[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Truthy applies the boolean-context coercion of spec.md §4.1: Null false;
// numeric zero false; empty string/array/object false; everything else
// true. A non-empty string is truthy (including "0") — the open question
// in spec.md §9 is pinned to ECMAScript's Boolean(...) semantics here.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindDecimal:
		return !v.d.IsZero()
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) != 0
	case KindObject:
		return len(v.obj) != 0
	default:
		return false
	}
}

// isNumeric does not rank the numeric widening order: Int < Float < Decimal is not
// quite right for the money-safe policy DESIGN.md pins, so arithmetic uses
// explicit pairwise rules (see rule/ops/arithmetic.go) rather than a single
// total order. This helper only classifies whether a Value participates in
// numeric context at all.
func (v Value) isNumeric() bool {
	switch v.kind {
	case KindInt, KindFloat, KindDecimal, KindBool, KindNull:
		return true
	case KindString:
		return true
	default:
		return false
	}
}

// ToNumber coerces v into a numeric Value (Int, Float, or Decimal) per the
// numeric-context rules of spec.md §4.1. Strings are parsed with
// spf13/cast, which fails loudly (ErrNotANumber) instead of silently
// returning zero on garbage input — exactly the behavior the spec's
// NotANumber error needs.
func (v Value) ToNumber() (Value, error) {
	switch v.kind {
	case KindInt, KindFloat, KindDecimal:
		return v, nil
	case KindNull:
		return Int(0), nil
	case KindBool:
		if v.b {
			return Int(1), nil
		}
		return Int(0), nil
	case KindString:
		if i, err := cast.ToInt64E(v.s); err == nil {
			return Int(i), nil
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(v.s))
		if err != nil {
			return Value{}, ErrNotANumber.New(v.s)
		}
		return Float(f), nil
	default:
		return Value{}, ErrNotANumber.New(v.DebugString())
	}
}

// ToFloat64 coerces v to a float64, widening Int/Decimal as needed.
func (v Value) ToFloat64() (float64, error) {
	n, err := v.ToNumber()
	if err != nil {
		return 0, err
	}
	switch n.kind {
	case KindInt:
		return float64(n.i), nil
	case KindFloat:
		return n.f, nil
	case KindDecimal:
		f, _ := n.d.Float64()
		return f, nil
	default:
		return 0, ErrNotANumber.New(v.DebugString())
	}
}

// ToDecimal coerces v to a decimal.Decimal, the widest numeric kind.
func (v Value) ToDecimal() (decimal.Decimal, error) {
	n, err := v.ToNumber()
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch n.kind {
	case KindInt:
		return decimal.NewFromInt(n.i), nil
	case KindFloat:
		return decimal.NewFromFloat(n.f), nil
	case KindDecimal:
		return n.d, nil
	default:
		return decimal.Decimal{}, ErrNotANumber.New(v.DebugString())
	}
}

// ToStringContext formats v for the string context used by `cat`: numbers
// get the minimum digits preserving their value, booleans become
// "true"/"false", Null becomes "", strings pass through, and arrays/
// objects get a best-effort rendering.
func (v Value) ToStringContext() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDecimal:
		return v.d.String()
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.ToStringContext()
		}
		return strings.Join(parts, ",")
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("%v", keys)
	default:
		return ""
	}
}

// DebugString renders v for error messages and logging; never used for the
// `cat` string context (see ToStringContext for that).
func (v Value) DebugString() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.ToGo())
}
