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

package expression

import (
	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/ops"
)

// maxFrameDepth bounds array-operator nesting (spec.md §4.4: "nesting is
// supported to at least 64 levels"), shared by Tier 0 and Tier 1.
const maxFrameDepth = 64

// frame binds the "current element" and, inside reduce, the "accumulator"
// that `var("")`/`var("current")`/`var("accumulator")` resolve against
// while evaluating an array operator's body (spec.md §4.4).
type frame struct {
	current     rule.Value
	accumulator *rule.Value
	parent      *frame
	depth       int
}

// Eval walks n against ctx using the Tier-0 recursive interpreter (spec.md
// §4.3). It exists to serve cold rules and to cross-check Tier-1 output
// (spec.md §8 universal invariant: both tiers return the same Value for
// the same context).
func Eval(n *Node, ctx *rule.ExecutionContext) (rule.Value, error) {
	return eval(n, ctx, nil)
}

func eval(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	if ctx.PastDeadline() {
		return rule.Value{}, rule.ErrDeadlineExceeded.New()
	}
	switch n.Kind {
	case NodeLiteral:
		return n.Literal, nil
	case NodeVariable:
		return evalVariable(n, ctx, fr)
	case NodeOp:
		return evalOp(n, ctx, fr)
	default:
		return rule.Value{}, rule.ErrTypeMismatch.New("unknown node kind")
	}
}

func evalVariable(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	var def *rule.Value
	if n.Default != nil {
		d, err := eval(n.Default, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		def = &d
	}

	switch n.Path {
	case "", "current":
		if fr != nil {
			return fr.current, nil
		}
	case "accumulator":
		if fr != nil && fr.accumulator != nil {
			return *fr.accumulator, nil
		}
	}

	return ctx.Get(n.Path, def)
}

func evalChildren(args []*Node, ctx *rule.ExecutionContext, fr *frame) ([]rule.Value, error) {
	out := make([]rule.Value, len(args))
	for i, a := range args {
		v, err := eval(a, ctx, fr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalOp(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	switch n.Op {
	case "+":
		return variadicNumeric(n, ctx, fr, ops.Add)
	case "-":
		return variadicNumeric(n, ctx, fr, ops.Sub)
	case "*":
		return variadicNumeric(n, ctx, fr, ops.Mul)
	case "/":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.Div(vs[0], vs[1])
	case "%":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.Mod(vs[0], vs[1])
	case "min":
		return variadicNumeric(n, ctx, fr, ops.Min)
	case "max":
		return variadicNumeric(n, ctx, fr, ops.Max)

	case "==", "!=", "===", "!==", "<", "<=", ">", ">=":
		return evalComparison(n, ctx, fr)

	case "and":
		return evalAnd(n, ctx, fr)
	case "or":
		return evalOr(n, ctx, fr)
	case "!":
		v, err := eval(n.Args[0], ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.Not(v), nil
	case "!!":
		v, err := eval(n.Args[0], ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.DoubleNot(v), nil
	case "if":
		return evalIf(n, ctx, fr)

	case "map", "filter", "all", "some", "none":
		return evalArrayOp(n, ctx, fr)
	case "reduce":
		return evalReduce(n, ctx, fr)
	case "merge":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.Merge(vs...), nil
	case "in":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.In(vs[0], vs[1]), nil

	case "cat":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return ops.Cat(vs...), nil
	case "substr":
		return evalSubstr(n, ctx, fr)

	case "missing":
		return evalMissing(n, ctx, fr)
	case "missing_some":
		return evalMissingSome(n, ctx, fr)

	case "array":
		vs, err := evalChildren(n.Args, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		return rule.ArraySlice(vs), nil

	default:
		return rule.Value{}, rule.ErrParseError.New("unknown operator " + n.Op)
	}
}

func variadicNumeric(n *Node, ctx *rule.ExecutionContext, fr *frame, fn func(...rule.Value) (rule.Value, error)) (rule.Value, error) {
	vs, err := evalChildren(n.Args, ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	return fn(vs...)
}

func evalComparison(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	vs, err := evalChildren(n.Args, ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	a, b := vs[0], vs[1]
	switch n.Op {
	case "==":
		r, err := ops.LooseEq(a, b)
		return rule.Bool(r), err
	case "!=":
		r, err := ops.LooseNe(a, b)
		return rule.Bool(r), err
	case "===":
		return rule.Bool(ops.StrictEq(a, b)), nil
	case "!==":
		return rule.Bool(ops.StrictNe(a, b)), nil
	case "<":
		r, err := ops.Lt(a, b)
		return rule.Bool(r), err
	case "<=":
		r, err := ops.Le(a, b)
		return rule.Bool(r), err
	case ">":
		r, err := ops.Gt(a, b)
		return rule.Bool(r), err
	case ">=":
		r, err := ops.Ge(a, b)
		return rule.Bool(r), err
	default:
		return rule.Value{}, rule.ErrParseError.New("unknown comparison " + n.Op)
	}
}

// evalAnd/evalOr implement true short-circuiting at the tree-walking
// level: later operands are never evaluated once the deciding value is
// known (spec.md §4.4, §9 "Note on And/Or" — the Tier-1 compiler achieves
// the same effect with conditional jumps; see rule/bytecode).
func evalAnd(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	var last rule.Value
	for _, a := range n.Args {
		v, err := eval(a, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		last = v
		if !v.Truthy() {
			return v, nil
		}
	}
	return last, nil
}

func evalOr(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	var last rule.Value
	for _, a := range n.Args {
		v, err := eval(a, ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		last = v
		if v.Truthy() {
			return v, nil
		}
	}
	return last, nil
}

// evalIf implements the [c1,t1,c2,t2,...,else] chain of spec.md §4.4.
func evalIf(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	args := n.Args
	i := 0
	for ; i+1 < len(args); i += 2 {
		cond, err := eval(args[i], ctx, fr)
		if err != nil {
			return rule.Value{}, err
		}
		if cond.Truthy() {
			return eval(args[i+1], ctx, fr)
		}
	}
	if i < len(args) {
		return eval(args[i], ctx, fr)
	}
	return rule.Null, nil
}

func evalSubstr(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	vs, err := evalChildren(n.Args, ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	if len(vs) == 2 {
		return ops.Substr(vs[0], vs[1], nil)
	}
	return ops.Substr(vs[0], vs[1], &vs[2])
}

func evalMissing(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	paths, err := evalPathList(n.Args, ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	return ops.Missing(ctx, paths), nil
}

func evalMissingSome(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	minV, err := eval(n.Args[0], ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	minN, err := minV.ToNumber()
	if err != nil {
		return rule.Value{}, err
	}
	pathsV, err := eval(n.Args[1], ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	var paths []string
	for _, p := range pathsV.AsArray() {
		paths = append(paths, p.ToStringContext())
	}
	return ops.MissingSome(ctx, int(minN.AsInt()), paths), nil
}

func evalPathList(args []*Node, ctx *rule.ExecutionContext, fr *frame) ([]string, error) {
	var paths []string
	for _, a := range args {
		v, err := eval(a, ctx, fr)
		if err != nil {
			return nil, err
		}
		paths = append(paths, v.ToStringContext())
	}
	return paths, nil
}

// evalArrayOp implements map/filter/all/some/none (spec.md §4.6): each
// evaluates body once per element of the source array in a child frame
// whose "current" is that element.
func evalArrayOp(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	src, err := eval(n.Args[0], ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	if src.Kind() != rule.KindArray {
		return rule.Value{}, rule.ErrTypeMismatch.New(n.Op + " requires an array source")
	}
	child, err := pushFrame(fr)
	if err != nil {
		return rule.Value{}, err
	}

	switch n.Op {
	case "map":
		out := make([]rule.Value, 0, len(src.AsArray()))
		for _, elem := range src.AsArray() {
			child.current = elem
			v, err := eval(n.Args[1], ctx, child)
			if err != nil {
				return rule.Value{}, err
			}
			out = append(out, v)
		}
		return rule.ArraySlice(out), nil
	case "filter":
		var out []rule.Value
		for _, elem := range src.AsArray() {
			child.current = elem
			v, err := eval(n.Args[1], ctx, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				out = append(out, elem)
			}
		}
		return rule.ArraySlice(out), nil
	case "all":
		if len(src.AsArray()) == 0 {
			return rule.Bool(false), nil
		}
		for _, elem := range src.AsArray() {
			child.current = elem
			v, err := eval(n.Args[1], ctx, child)
			if err != nil {
				return rule.Value{}, err
			}
			if !v.Truthy() {
				return rule.Bool(false), nil
			}
		}
		return rule.Bool(true), nil
	case "some":
		for _, elem := range src.AsArray() {
			child.current = elem
			v, err := eval(n.Args[1], ctx, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				return rule.Bool(true), nil
			}
		}
		return rule.Bool(false), nil
	case "none":
		for _, elem := range src.AsArray() {
			child.current = elem
			v, err := eval(n.Args[1], ctx, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				return rule.Bool(false), nil
			}
		}
		return rule.Bool(true), nil
	default:
		return rule.Value{}, rule.ErrParseError.New("unknown array operator " + n.Op)
	}
}

// evalReduce implements "reduce(arr, body, initial)", exposing `current`
// and `accumulator` in the body's frame (spec.md §4.6).
func evalReduce(n *Node, ctx *rule.ExecutionContext, fr *frame) (rule.Value, error) {
	src, err := eval(n.Args[0], ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	if src.Kind() != rule.KindArray {
		return rule.Value{}, rule.ErrTypeMismatch.New("reduce requires an array source")
	}
	acc, err := eval(n.Args[2], ctx, fr)
	if err != nil {
		return rule.Value{}, err
	}
	child, err := pushFrame(fr)
	if err != nil {
		return rule.Value{}, err
	}
	for _, elem := range src.AsArray() {
		child.current = elem
		child.accumulator = &acc
		v, err := eval(n.Args[1], ctx, child)
		if err != nil {
			return rule.Value{}, err
		}
		acc = v
	}
	return acc, nil
}

func pushFrame(parent *frame) (*frame, error) {
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	if depth > maxFrameDepth {
		return nil, rule.ErrStackOverflow.New(maxFrameDepth)
	}
	return &frame{parent: parent, depth: depth}, nil
}
