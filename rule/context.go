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

import (
	"strconv"
	"strings"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
)

// ExecutionContext is the per-evaluation store of input and derived values.
// Rather than a pointer graph, it is two flat maps keyed by the full
// dotted path (spec.md §9 "Dotted-path lookup"): this keeps it trivial to
// read concurrently and to hand to worker goroutines. inputs is never
// written after construction; derived is written by rules under mu.
//
// A context is created once per EvaluateRule/EvaluateProduct call and is
// never shared across concurrent calls, though it is shared by every
// worker goroutine *within* one call (spec.md §5).
type ExecutionContext struct {
	// EvaluationID correlates every log entry and trace span emitted
	// during this call; it has no effect on evaluation semantics.
	EvaluationID uuid.UUID
	StartedAt    time.Time
	Deadline     time.Time // zero value means no deadline

	inputs map[string]Value

	mu      sync.Mutex
	derived map[string]Value
}

// NewExecutionContext builds a context over the given caller-supplied
// inputs. The inputs map is copied so later mutation by the caller cannot
// race with evaluation.
func NewExecutionContext(inputs map[string]Value) *ExecutionContext {
	cp := make(map[string]Value, len(inputs))
	for k, v := range inputs {
		cp[k] = v
	}
	return &ExecutionContext{
		EvaluationID: uuid.NewV4(),
		StartedAt:    time.Now(),
		inputs:       cp,
		derived:      make(map[string]Value),
	}
}

// WithDeadline attaches an absolute deadline and returns the same context
// for chaining.
func (c *ExecutionContext) WithDeadline(d time.Time) *ExecutionContext {
	c.Deadline = d
	return c
}

// PastDeadline reports whether a deadline is set and has passed.
func (c *ExecutionContext) PastDeadline() bool {
	return !c.Deadline.IsZero() && time.Now().After(c.Deadline)
}

// Get resolves path: derived first, then inputs, then def if provided.
// An unresolved path without a default is an error (normal `var`
// resolution); `missing`/`missing_some` test presence with Has instead
// (spec.md §4.7).
func (c *ExecutionContext) Get(path string, def *Value) (Value, error) {
	if v, ok := c.lookupDerived(path); ok {
		return v, nil
	}
	if v, ok := lookupPath(c.inputs, path); ok {
		return v, nil
	}
	if def != nil {
		return *def, nil
	}
	return Value{}, ErrVarNotFound.New(path)
}

// Has reports whether path resolves to a value in derived or inputs,
// without raising VarNotFound. Used by `missing`/`missing_some`.
func (c *ExecutionContext) Has(path string) bool {
	if _, ok := c.lookupDerived(path); ok {
		return true
	}
	_, ok := lookupPath(c.inputs, path)
	return ok
}

func (c *ExecutionContext) lookupDerived(path string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lookupPath(c.derived, path)
}

// Set writes path into derived under the context's write mutex. Reads
// (Get/Has) are concurrency-safe without external locking; writes must
// serialize, matching spec.md §5's "the executor must serialize writes to
// the context's derived map, but reads are concurrent-safe" (the map
// itself is always mutex-guarded here since dotted writes can touch
// pre-existing nested structures that a lock-free read could observe
// half-updated).
func (c *ExecutionContext) Set(path string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.derived[path] = v
}

// Outputs returns a snapshot copy of every derived value.
func (c *ExecutionContext) Outputs() map[string]Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Value, len(c.derived))
	for k, v := range c.derived {
		out[k] = v
	}
	return out
}

// lookupPath resolves a dotted path against a flat path->Value map,
// falling back to traversing a parent Object/Array when the exact path
// isn't itself a key. Numeric path segments index into Array values
// zero-based (spec.md §4.7).
func lookupPath(m map[string]Value, path string) (Value, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	segs := strings.Split(path, ".")
	// Find the longest prefix that is itself a stored key, then descend
	// the remaining segments through nested Object/Array values.
	for i := len(segs) - 1; i > 0; i-- {
		prefix := strings.Join(segs[:i], ".")
		v, ok := m[prefix]
		if !ok {
			continue
		}
		cur, ok := descend(v, segs[i:])
		if ok {
			return cur, true
		}
	}
	return Value{}, false
}

func descend(v Value, segs []string) (Value, bool) {
	cur := v
	for _, seg := range segs {
		switch cur.Kind() {
		case KindObject:
			next, ok := cur.obj[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[idx]
		default:
			return Value{}, false
		}
	}
	return cur, true
}
