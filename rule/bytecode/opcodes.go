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

// Package bytecode lowers an expression tree (rule/expression) into the
// linear bytecode program of spec.md §4.4/§4.5: a byte sequence, a
// constant pool, and a variable table, plus the bit-exact wire encoding of
// spec.md §6.
package bytecode

// Op is a single bytecode instruction's opcode byte (spec.md §4.5 table).
type Op byte

const (
	OpLoadConst Op = iota
	OpLoadVar
	OpVarOrDefault
	OpPop
	OpDup
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpMin
	OpMax
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpStrictEq
	OpStrictNe
	OpNot
	OpTruthy
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpCat
	OpSubstr
	OpIn
	OpArrayNew
	OpObjectGet
	OpCallArrayOp
	OpMerge
	OpMissing
	OpMissingSome
	OpReturn
)

var opNames = map[Op]string{
	OpLoadConst:    "LoadConst",
	OpLoadVar:      "LoadVar",
	OpVarOrDefault: "VarOrDefault",
	OpPop:          "Pop",
	OpDup:          "Dup",
	OpAdd:          "Add",
	OpSub:          "Sub",
	OpMul:          "Mul",
	OpDiv:          "Div",
	OpMod:          "Mod",
	OpNeg:          "Neg",
	OpMin:          "Min",
	OpMax:          "Max",
	OpEq:           "Eq",
	OpNe:           "Ne",
	OpLt:           "Lt",
	OpLe:           "Le",
	OpGt:           "Gt",
	OpGe:           "Ge",
	OpStrictEq:     "StrictEq",
	OpStrictNe:     "StrictNe",
	OpNot:          "Not",
	OpTruthy:       "Truthy",
	OpJump:         "Jump",
	OpJumpIfFalse:  "JumpIfFalse",
	OpJumpIfTrue:   "JumpIfTrue",
	OpCat:          "Cat",
	OpSubstr:       "Substr",
	OpIn:           "In",
	OpArrayNew:     "ArrayNew",
	OpObjectGet:    "ObjectGet",
	OpCallArrayOp:  "CallArrayOp",
	OpMerge:        "Merge",
	OpMissing:      "Missing",
	OpMissingSome:  "MissingSome",
	OpReturn:       "Return",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "Unknown"
}

// ArrayOpKind tags which array operator a CallArrayOp instruction executes
// (spec.md §4.6: map/filter/reduce/all/some/none).
type ArrayOpKind byte

const (
	ArrayOpMap ArrayOpKind = iota
	ArrayOpFilter
	ArrayOpReduce
	ArrayOpAll
	ArrayOpSome
	ArrayOpNone
)

// MaxStackDepth is the VM's hard operand-stack limit (spec.md §4.5, §5).
const MaxStackDepth = 1024

// MaxProgramBytes is the maximum bytecode length per rule (spec.md §4.5).
const MaxProgramBytes = 65535

// MaxPoolEntries bounds the constant pool and variable table (spec.md
// §4.4: index fits in 16 bits).
const MaxPoolEntries = 65535

// MaxFrameDepth bounds array-operator nesting, shared with Tier 0 (spec.md
// §4.4: "nesting is supported to at least 64 levels").
const MaxFrameDepth = 64

// EncodingVersion is the bytecode wire format version (spec.md §6).
const EncodingVersion byte = 1
