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

package bytecode

import (
	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/expression"
)

// compiler lowers one expression.Node tree into a linear instruction
// stream. It owns the constant pool and variable table for the program
// under construction; both are populated lazily as nodes are visited, so a
// rule that never uses, say, a default value never pays for one.
type compiler struct {
	code      []byte
	pool      *constPool
	vars      *varTable
	frameDepth int
}

// Compile lowers tree into a Program (spec.md §4.4). ruleID is stamped onto
// the result for diagnostics; it plays no role in the bytecode itself.
func Compile(ruleID string, tree *expression.Node) (*Program, error) {
	c := &compiler{pool: newConstPool(), vars: newVarTable()}
	if err := c.compileNode(tree); err != nil {
		return nil, err
	}
	c.emitOp(OpReturn)
	if len(c.code) > MaxProgramBytes {
		return nil, rule.ErrCompileError.New("program exceeds 65535 bytes")
	}
	return &Program{Code: c.code, Pool: c.pool.values, Vars: c.vars.paths, RuleID: ruleID}, nil
}

func (c *compiler) emitByte(b byte) { c.code = append(c.code, b) }
func (c *compiler) emitOp(op Op)    { c.emitByte(byte(op)) }

func (c *compiler) emitU16(v uint16) {
	c.emitByte(byte(v))
	c.emitByte(byte(v >> 8))
}

// reserveU16 emits a zero placeholder and returns its position, to be
// overwritten later by patchU16 once the real value is known.
func (c *compiler) reserveU16() int {
	pos := len(c.code)
	c.emitU16(0)
	return pos
}

func (c *compiler) patchU16(pos int, v uint16) {
	c.code[pos] = byte(v)
	c.code[pos+1] = byte(v >> 8)
}

// patchJump backfills a reserved two-byte offset at pos with the signed
// relative distance from just after the offset field to the current end of
// the instruction stream (spec.md §4.4: "signed 16-bit relative offsets").
func (c *compiler) patchJump(pos int) error {
	target := len(c.code)
	offset := target - (pos + 2)
	if offset < -32768 || offset > 32767 {
		return rule.ErrCompileError.New("jump offset exceeds signed 16-bit range")
	}
	c.patchU16(pos, uint16(int16(offset)))
	return nil
}

func (c *compiler) emitConst(v rule.Value) error {
	idx, err := c.pool.add(v)
	if err != nil {
		return err
	}
	c.emitOp(OpLoadConst)
	c.emitU16(idx)
	return nil
}

func (c *compiler) compileNode(n *expression.Node) error {
	switch n.Kind {
	case expression.NodeLiteral:
		return c.emitConst(n.Literal)
	case expression.NodeVariable:
		return c.compileVariable(n)
	case expression.NodeOp:
		return c.compileOp(n)
	default:
		return rule.ErrCompileError.New("unknown node kind")
	}
}

func (c *compiler) compileVariable(n *expression.Node) error {
	idx, err := c.vars.add(n.Path)
	if err != nil {
		return err
	}
	if n.Default == nil {
		c.emitOp(OpLoadVar)
		c.emitU16(idx)
		return nil
	}
	c.emitOp(OpVarOrDefault)
	c.emitU16(idx)
	skipPos := c.reserveU16()
	if err := c.compileNode(n.Default); err != nil {
		return err
	}
	c.patchU16(skipPos, uint16(len(c.code)-(skipPos+2)))
	return nil
}

func (c *compiler) compileChildren(args []*expression.Node) error {
	for _, a := range args {
		if err := c.compileNode(a); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileOp(n *expression.Node) error {
	switch n.Op {
	case "+":
		return c.compileVariadic(n.Args, OpAdd)
	case "-":
		if len(n.Args) == 1 {
			if err := c.compileNode(n.Args[0]); err != nil {
				return err
			}
			c.emitOp(OpNeg)
			return nil
		}
		return c.compileVariadic(n.Args, OpSub)
	case "*":
		return c.compileVariadic(n.Args, OpMul)
	case "/":
		return c.compileFixed(n.Args, OpDiv)
	case "%":
		return c.compileFixed(n.Args, OpMod)
	case "min":
		return c.compileVariadic(n.Args, OpMin)
	case "max":
		return c.compileVariadic(n.Args, OpMax)
	case "==":
		return c.compileFixed(n.Args, OpEq)
	case "!=":
		return c.compileFixed(n.Args, OpNe)
	case "===":
		return c.compileFixed(n.Args, OpStrictEq)
	case "!==":
		return c.compileFixed(n.Args, OpStrictNe)
	case "<":
		return c.compileFixed(n.Args, OpLt)
	case "<=":
		return c.compileFixed(n.Args, OpLe)
	case ">":
		return c.compileFixed(n.Args, OpGt)
	case ">=":
		return c.compileFixed(n.Args, OpGe)
	case "!":
		return c.compileFixed(n.Args, OpNot)
	case "!!":
		return c.compileFixed(n.Args, OpTruthy)
	case "and":
		return c.compileShortCircuit(n.Args, OpJumpIfFalse)
	case "or":
		return c.compileShortCircuit(n.Args, OpJumpIfTrue)
	case "if":
		return c.compileIf(n.Args)
	case "cat":
		return c.compileVariadic(n.Args, OpCat)
	case "substr":
		return c.compileVariadic(n.Args, OpSubstr)
	case "in":
		return c.compileFixed(n.Args, OpIn)
	case "merge":
		return c.compileVariadic(n.Args, OpMerge)
	case "array":
		return c.compileVariadic(n.Args, OpArrayNew)
	case "missing":
		return c.compileVariadic(n.Args, OpMissing)
	case "missing_some":
		return c.compileFixed(n.Args, OpMissingSome)
	case "map":
		return c.compileArrayOp(n.Args, ArrayOpMap)
	case "filter":
		return c.compileArrayOp(n.Args, ArrayOpFilter)
	case "all":
		return c.compileArrayOp(n.Args, ArrayOpAll)
	case "some":
		return c.compileArrayOp(n.Args, ArrayOpSome)
	case "none":
		return c.compileArrayOp(n.Args, ArrayOpNone)
	case "reduce":
		return c.compileReduce(n.Args)
	default:
		return rule.ErrCompileError.New("unsupported operator: " + n.Op)
	}
}

// compileFixed compiles a fixed-arity operator: its argument count is known
// at evaluation time from the instruction itself, so no argc operand is
// emitted.
func (c *compiler) compileFixed(args []*expression.Node, op Op) error {
	if err := c.compileChildren(args); err != nil {
		return err
	}
	c.emitOp(op)
	return nil
}

// compileVariadic compiles a variable-arity operator, emitting the argument
// count as a trailing u16 operand so the VM knows how much of the stack to
// fold.
func (c *compiler) compileVariadic(args []*expression.Node, op Op) error {
	if err := c.compileChildren(args); err != nil {
		return err
	}
	if len(args) > 0xFFFF {
		return rule.ErrCompileError.New("argument list too long")
	}
	c.emitOp(op)
	c.emitU16(uint16(len(args)))
	return nil
}

// compileShortCircuit compiles and/or (spec.md §4.4: "short-circuit
// compilation of and/or via conditional jumps" rather than eager
// evaluation). test is JumpIfFalse for "and" (stop at the first falsy
// value) or JumpIfTrue for "or" (stop at the first truthy value).
func (c *compiler) compileShortCircuit(args []*expression.Node, test Op) error {
	if err := c.compileNode(args[0]); err != nil {
		return err
	}
	var endJumps []int
	for _, a := range args[1:] {
		c.emitOp(OpDup)
		c.emitOp(test)
		endJumps = append(endJumps, c.reserveU16())
		c.emitOp(OpPop)
		if err := c.compileNode(a); err != nil {
			return err
		}
	}
	for _, pos := range endJumps {
		if err := c.patchJump(pos); err != nil {
			return err
		}
	}
	return nil
}

// compileIf lowers if/elseif/else chains (spec.md §4.4, odd-length
// argument list: cond1, then1, cond2, then2, ..., [else]).
func (c *compiler) compileIf(args []*expression.Node) error {
	if len(args) == 1 {
		return c.compileNode(args[0])
	}
	var endJumps []int
	i := 0
	for ; i+1 < len(args); i += 2 {
		cond, then := args[i], args[i+1]
		if err := c.compileNode(cond); err != nil {
			return err
		}
		c.emitOp(OpJumpIfFalse)
		falsePos := c.reserveU16()
		if err := c.compileNode(then); err != nil {
			return err
		}
		c.emitOp(OpJump)
		endJumps = append(endJumps, c.reserveU16())
		if err := c.patchJump(falsePos); err != nil {
			return err
		}
	}
	if i < len(args) {
		if err := c.compileNode(args[i]); err != nil {
			return err
		}
	} else {
		if err := c.emitConst(rule.Null); err != nil {
			return err
		}
	}
	for _, pos := range endJumps {
		if err := c.patchJump(pos); err != nil {
			return err
		}
	}
	return nil
}

// compileArrayOp lowers map/filter/all/some/none: compile the source
// expression, then inline the per-element body behind a skip-jump so the VM
// can re-execute just that byte range per element (spec.md §4.6). Bodies
// reference the current element with var("")/var("current"), resolved by
// the VM against the active iterator frame rather than the execution
// context; the compiler treats them as ordinary variable loads.
func (c *compiler) compileArrayOp(args []*expression.Node, kind ArrayOpKind) error {
	source, body := args[0], args[1]
	if err := c.compileNode(source); err != nil {
		return err
	}
	return c.emitArrayBody(body, kind)
}

// compileReduce lowers reduce(source, body, init): the body additionally
// sees var("accumulator") bound to the running total.
func (c *compiler) compileReduce(args []*expression.Node) error {
	source, body, init := args[0], args[1], args[2]
	if err := c.compileNode(source); err != nil {
		return err
	}
	if err := c.compileNode(init); err != nil {
		return err
	}
	return c.emitArrayBody(body, ArrayOpReduce)
}

func (c *compiler) emitArrayBody(body *expression.Node, kind ArrayOpKind) error {
	if c.frameDepth >= MaxFrameDepth {
		return rule.ErrCompileError.New("array operator nesting exceeds 64 levels")
	}
	c.emitOp(OpJump)
	skipPos := c.reserveU16()
	bodyOffset := len(c.code)

	c.frameDepth++
	err := c.compileNode(body)
	c.frameDepth--
	if err != nil {
		return err
	}
	bodyLen := len(c.code) - bodyOffset
	if err := c.patchJump(skipPos); err != nil {
		return err
	}

	c.emitOp(OpCallArrayOp)
	c.emitByte(byte(kind))
	if bodyOffset > 0xFFFF || bodyLen > 0xFFFF {
		return rule.ErrCompileError.New("array operator body exceeds 65535 bytes")
	}
	c.emitU16(uint16(bodyOffset))
	c.emitU16(uint16(bodyLen))
	return nil
}
