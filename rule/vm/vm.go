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

// Package vm executes a compiled rule/bytecode.Program: the Tier-1 stack
// machine of spec.md §4.5. Operator semantics are delegated to rule/ops so
// Tier-0 (rule/expression) and Tier-1 agree by construction.
package vm

import (
	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/ops"
)

// frame binds the "current element" and, inside reduce, the "accumulator"
// that var("")/var("current")/var("accumulator") resolve against while a
// CallArrayOp body is executing (spec.md §4.4), mirroring rule/expression's
// identically-named type so the two tiers agree on scoping rules.
type frame struct {
	current     rule.Value
	accumulator *rule.Value
	parent      *frame
	depth       int
}

func pushFrame(parent *frame) (*frame, error) {
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	if depth > bytecode.MaxFrameDepth {
		return nil, rule.ErrStackOverflow.New(bytecode.MaxFrameDepth)
	}
	return &frame{parent: parent, depth: depth}, nil
}

// opStack is the VM's operand stack, capped at bytecode.MaxStackDepth
// (spec.md §4.5: "operand stack depth never exceeds 1,024").
type opStack struct {
	vs []rule.Value
}

func (s *opStack) push(v rule.Value) error {
	if len(s.vs) >= bytecode.MaxStackDepth {
		return rule.ErrStackOverflow.New(bytecode.MaxStackDepth)
	}
	s.vs = append(s.vs, v)
	return nil
}

func (s *opStack) pop() rule.Value {
	v := s.vs[len(s.vs)-1]
	s.vs = s.vs[:len(s.vs)-1]
	return v
}

func (s *opStack) popN(n int) []rule.Value {
	out := make([]rule.Value, n)
	copy(out, s.vs[len(s.vs)-n:])
	s.vs = s.vs[:len(s.vs)-n]
	return out
}

func (s *opStack) top() rule.Value {
	return s.vs[len(s.vs)-1]
}

// Run executes prog against ctx and returns its result (spec.md §4.5,
// "Return — terminate, result is stack top").
func Run(prog *bytecode.Program, ctx *rule.ExecutionContext) (rule.Value, error) {
	m := &machine{prog: prog, ctx: ctx}
	return m.exec(prog.Code, nil)
}

// machine holds the state shared by every nested exec call for one
// top-level Run invocation: the program being executed and the execution
// context it reads/writes. Each exec call (top-level or per CallArrayOp
// body) gets its own operand stack, matching spec.md §4.5's "per-invocation
// state: the program counter, an operand stack".
type machine struct {
	prog *bytecode.Program
	ctx  *rule.ExecutionContext
}

func readU16(code []byte, pc *int) uint16 {
	v := uint16(code[*pc]) | uint16(code[*pc+1])<<8
	*pc += 2
	return v
}

func readI16(code []byte, pc *int) int {
	return int(int16(readU16(code, pc)))
}

// exec runs code (either a whole program or one CallArrayOp body range)
// against a fresh local operand stack, honoring the active iterator frame
// fr (nil outside any array operator). It returns the final stack top,
// whether code ends in an explicit Return (whole programs) or simply runs
// out of instructions (array-operator bodies).
func (m *machine) exec(code []byte, fr *frame) (rule.Value, error) {
	var s opStack
	pc := 0
	for pc < len(code) {
		if m.ctx.PastDeadline() {
			return rule.Value{}, rule.ErrDeadlineExceeded.New()
		}
		op := bytecode.Op(code[pc])
		pc++

		switch op {
		case bytecode.OpLoadConst:
			idx := readU16(code, &pc)
			if err := s.push(m.prog.Pool[idx]); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpLoadVar:
			idx := readU16(code, &pc)
			v, err := m.resolveVar(m.prog.Vars[idx], fr, nil)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpVarOrDefault:
			idx := readU16(code, &pc)
			skip := readU16(code, &pc)
			path := m.prog.Vars[idx]
			if v, ok := m.tryResolveVar(path, fr); ok {
				if err := s.push(v); err != nil {
					return rule.Value{}, err
				}
				pc += int(skip)
			}
			// else: fall through into the default-value code that follows

		case bytecode.OpPop:
			s.pop()
		case bytecode.OpDup:
			if err := s.push(s.top()); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpMin, bytecode.OpMax:
			n := int(readU16(code, &pc))
			args := s.popN(n)
			v, err := m.variadicArith(op, args)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpDiv:
			b, a := s.pop(), s.pop()
			v, err := ops.Div(a, b)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpMod:
			b, a := s.pop(), s.pop()
			v, err := ops.Mod(a, b)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpNeg:
			v, err := ops.Neg(s.pop())
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpEq, bytecode.OpNe, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			b, a := s.pop(), s.pop()
			v, err := m.comparison(op, a, b)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpStrictEq:
			b, a := s.pop(), s.pop()
			if err := s.push(rule.Bool(ops.StrictEq(a, b))); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpStrictNe:
			b, a := s.pop(), s.pop()
			if err := s.push(rule.Bool(ops.StrictNe(a, b))); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpNot:
			if err := s.push(ops.Not(s.pop())); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpTruthy:
			if err := s.push(ops.DoubleNot(s.pop())); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpJump:
			off := readI16(code, &pc)
			pc += off
		case bytecode.OpJumpIfFalse:
			off := readI16(code, &pc)
			if !s.pop().Truthy() {
				pc += off
			}
		case bytecode.OpJumpIfTrue:
			off := readI16(code, &pc)
			if s.pop().Truthy() {
				pc += off
			}

		case bytecode.OpCat:
			n := int(readU16(code, &pc))
			if err := s.push(ops.Cat(s.popN(n)...)); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpSubstr:
			n := int(readU16(code, &pc))
			args := s.popN(n)
			var v rule.Value
			var err error
			if n == 2 {
				v, err = ops.Substr(args[0], args[1], nil)
			} else {
				v, err = ops.Substr(args[0], args[1], &args[2])
			}
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpIn:
			container, element := s.pop(), s.pop()
			if err := s.push(ops.In(element, container)); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpArrayNew:
			n := int(readU16(code, &pc))
			if err := s.push(rule.ArraySlice(s.popN(n))); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpObjectGet:
			idx := readU16(code, &pc)
			obj := s.pop()
			if obj.Kind() != rule.KindObject {
				return rule.Value{}, rule.ErrTypeMismatch.New("ObjectGet requires an object")
			}
			field := obj.AsObject()[m.prog.Vars[idx]]
			if err := s.push(field); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpMerge:
			n := int(readU16(code, &pc))
			if err := s.push(ops.Merge(s.popN(n)...)); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpMissing:
			n := int(readU16(code, &pc))
			args := s.popN(n)
			paths := make([]string, len(args))
			for i, a := range args {
				paths[i] = a.ToStringContext()
			}
			if err := s.push(ops.Missing(m.ctx, paths)); err != nil {
				return rule.Value{}, err
			}
		case bytecode.OpMissingSome:
			pathsV, minV := s.pop(), s.pop()
			minN, err := minV.ToNumber()
			if err != nil {
				return rule.Value{}, err
			}
			var paths []string
			for _, p := range pathsV.AsArray() {
				paths = append(paths, p.ToStringContext())
			}
			if err := s.push(ops.MissingSome(m.ctx, int(minN.AsInt()), paths)); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpCallArrayOp:
			kind := bytecode.ArrayOpKind(code[pc])
			pc++
			bodyOffset := int(readU16(code, &pc))
			bodyLen := int(readU16(code, &pc))
			// bodyOffset is always absolute into the whole program (see
			// emitArrayBody in rule/bytecode/compiler.go), not relative to
			// code, which is a re-sliced body when this exec call is itself
			// running inside an outer CallArrayOp.
			v, err := m.execArrayOp(kind, m.prog.Code[bodyOffset:bodyOffset+bodyLen], &s, fr)
			if err != nil {
				return rule.Value{}, err
			}
			if err := s.push(v); err != nil {
				return rule.Value{}, err
			}

		case bytecode.OpReturn:
			return s.pop(), nil

		default:
			return rule.Value{}, rule.ErrCompileError.New("unknown opcode")
		}
	}
	if len(s.vs) == 0 {
		return rule.Null, nil
	}
	return s.top(), nil
}

func (m *machine) variadicArith(op bytecode.Op, args []rule.Value) (rule.Value, error) {
	switch op {
	case bytecode.OpAdd:
		return ops.Add(args...)
	case bytecode.OpSub:
		return ops.Sub(args...)
	case bytecode.OpMul:
		return ops.Mul(args...)
	case bytecode.OpMin:
		return ops.Min(args...)
	default:
		return ops.Max(args...)
	}
}

func (m *machine) comparison(op bytecode.Op, a, b rule.Value) (rule.Value, error) {
	var r bool
	var err error
	switch op {
	case bytecode.OpEq:
		r, err = ops.LooseEq(a, b)
	case bytecode.OpNe:
		r, err = ops.LooseNe(a, b)
	case bytecode.OpLt:
		r, err = ops.Lt(a, b)
	case bytecode.OpLe:
		r, err = ops.Le(a, b)
	case bytecode.OpGt:
		r, err = ops.Gt(a, b)
	default:
		r, err = ops.Ge(a, b)
	}
	if err != nil {
		return rule.Value{}, err
	}
	return rule.Bool(r), nil
}

// resolveVar is LoadVar's lookup: def is always nil here (a bare LoadVar
// never has a compiled default — see compileVariable), so an unresolved
// path outside any iterator frame raises VarNotFound.
func (m *machine) resolveVar(path string, fr *frame, def *rule.Value) (rule.Value, error) {
	switch path {
	case "", "current":
		if fr != nil {
			return fr.current, nil
		}
	case "accumulator":
		if fr != nil && fr.accumulator != nil {
			return *fr.accumulator, nil
		}
	}
	return m.ctx.Get(path, def)
}

// tryResolveVar is VarOrDefault's lookup: never raises VarNotFound, instead
// reporting absence so the caller can fall through to the compiled default
// expression.
func (m *machine) tryResolveVar(path string, fr *frame) (rule.Value, bool) {
	switch path {
	case "", "current":
		if fr != nil {
			return fr.current, true
		}
	case "accumulator":
		if fr != nil && fr.accumulator != nil {
			return *fr.accumulator, true
		}
	}
	if v, err := m.ctx.Get(path, nil); err == nil {
		return v, true
	}
	return rule.Value{}, false
}

// execArrayOp implements map/filter/reduce/all/some/none (spec.md §4.6):
// body is re-executed once per source element in a child frame, each run
// getting its own local operand stack via exec's recursion.
func (m *machine) execArrayOp(kind bytecode.ArrayOpKind, body []byte, s *opStack, fr *frame) (rule.Value, error) {
	var arr, acc rule.Value
	if kind == bytecode.ArrayOpReduce {
		acc, arr = s.pop(), s.pop()
	} else {
		arr = s.pop()
	}
	if arr.Kind() != rule.KindArray {
		return rule.Value{}, rule.ErrTypeMismatch.New("array operator requires an array source")
	}
	child, err := pushFrame(fr)
	if err != nil {
		return rule.Value{}, err
	}

	switch kind {
	case bytecode.ArrayOpMap:
		out := make([]rule.Value, 0, len(arr.AsArray()))
		for _, elem := range arr.AsArray() {
			child.current = elem
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			out = append(out, v)
		}
		return rule.ArraySlice(out), nil

	case bytecode.ArrayOpFilter:
		var out []rule.Value
		for _, elem := range arr.AsArray() {
			child.current = elem
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				out = append(out, elem)
			}
		}
		return rule.ArraySlice(out), nil

	case bytecode.ArrayOpAll:
		if len(arr.AsArray()) == 0 {
			return rule.Bool(false), nil
		}
		for _, elem := range arr.AsArray() {
			child.current = elem
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			if !v.Truthy() {
				return rule.Bool(false), nil
			}
		}
		return rule.Bool(true), nil

	case bytecode.ArrayOpSome:
		for _, elem := range arr.AsArray() {
			child.current = elem
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				return rule.Bool(true), nil
			}
		}
		return rule.Bool(false), nil

	case bytecode.ArrayOpNone:
		for _, elem := range arr.AsArray() {
			child.current = elem
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			if v.Truthy() {
				return rule.Bool(false), nil
			}
		}
		return rule.Bool(true), nil

	case bytecode.ArrayOpReduce:
		for _, elem := range arr.AsArray() {
			child.current = elem
			child.accumulator = &acc
			v, err := m.exec(body, child)
			if err != nil {
				return rule.Value{}, err
			}
			acc = v
		}
		return acc, nil

	default:
		return rule.Value{}, rule.ErrCompileError.New("unknown array operator kind")
	}
}
