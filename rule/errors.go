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

package rule

import "gopkg.in/src-d/go-errors.v1"

// Error kinds returned by the rule evaluation core. Every kind named in
// the error taxonomy is a distinct *errors.Kind so callers can test for it
// with ErrXxx.Is(err) regardless of the formatted message.
var (
	// ErrParseError is raised when a JSON Logic term cannot be parsed into
	// an expression tree: an unknown operator, a malformed var path, or an
	// arity violation.
	ErrParseError = errors.NewKind("parse error: %s")

	// ErrCompileError is raised when bytecode compilation exceeds a limit:
	// constant pool or variable table overflow, or a jump offset outside
	// the signed 16-bit range.
	ErrCompileError = errors.NewKind("compile error: %s")

	// ErrCycleDetected is raised when the rule dependency graph contains a
	// cycle; carries the offending cycle as a slice of rule ids.
	ErrCycleDetected = errors.NewKind("cycle detected among rules: %v")

	// ErrDuplicateOutput is raised when two enabled rules declare the same
	// output attribute path.
	ErrDuplicateOutput = errors.NewKind("output %q is declared by both rule %q and rule %q")

	// ErrTypeMismatch is raised when an operator cannot coerce an operand
	// to the type its context requires.
	ErrTypeMismatch = errors.NewKind("type mismatch: %s")

	// ErrDivisionByZero is raised by / and % when the divisor is zero.
	ErrDivisionByZero = errors.NewKind("division by zero")

	// ErrNotANumber is raised when a string operand fails to parse as a
	// number in a numeric context.
	ErrNotANumber = errors.NewKind("value %q is not a number")

	// ErrVarNotFound is raised when a var reference has no default and its
	// path resolves to nothing in the execution context.
	ErrVarNotFound = errors.NewKind("variable %q not found")

	// ErrOutputUnbound is raised when a multi-output rule's result object
	// is missing a key for one of its declared outputs.
	ErrOutputUnbound = errors.NewKind("rule %q did not produce a value for declared output %q")

	// ErrStackOverflow is raised when the VM operand stack would exceed
	// its hard limit.
	ErrStackOverflow = errors.NewKind("operand stack overflow (limit %d)")

	// ErrDeadlineExceeded is raised when an evaluation's deadline passes
	// before all levels have run.
	ErrDeadlineExceeded = errors.NewKind("evaluation deadline exceeded")

	// ErrUnknownProduct is raised when an operation names a product id the
	// engine has no definition for.
	ErrUnknownProduct = errors.NewKind("unknown product %q")

	// ErrKeyNotFound is raised by the bounded caches when a key has no
	// entry (evicted, or never written).
	ErrKeyNotFound = errors.NewKind("key not found in cache")
)
