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
	"github.com/mitchellh/hashstructure"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// Program is a compiled rule: a flat instruction stream plus its constant
// pool and variable table (spec.md §3 "Bytecode program"). It satisfies
// rule.CompiledProgram so a *rule.CachedExpression can hold one without
// rule importing this package.
type Program struct {
	Code  []byte
	Pool  []rule.Value
	Vars  []string
	RuleID string
}

// ProgramTier implements rule.CompiledProgram.
func (p *Program) ProgramTier() rule.Tier { return rule.Tier1 }

// constPool accumulates literal Values, optionally deduping identical
// entries by a mitchellh/hashstructure hash of their Go representation
// (spec.md §4.4: "MAY be deduplicated but need not be"). Collisions fall
// back to a linear equality scan of the bucket before appending a new
// entry, so a hash collision never silently reuses the wrong constant.
type constPool struct {
	values  []rule.Value
	byHash  map[uint64][]int
}

func newConstPool() *constPool {
	return &constPool{byHash: make(map[uint64][]int)}
}

func (p *constPool) add(v rule.Value) (uint16, error) {
	h, err := hashstructure.Hash(v.ToGo(), nil)
	if err == nil {
		for _, idx := range p.byHash[h] {
			if p.values[idx].Equal(v) {
				return uint16(idx), nil
			}
		}
	}
	if len(p.values) >= MaxPoolEntries {
		return 0, rule.ErrCompileError.New("constant pool exceeds 65535 entries")
	}
	idx := len(p.values)
	p.values = append(p.values, v)
	if err == nil {
		p.byHash[h] = append(p.byHash[h], idx)
	}
	return uint16(idx), nil
}

// varTable accumulates dotted variable paths, deduplicated exactly (paths
// are short strings; exact-match dedup is cheap and always correct, unlike
// the constant pool's hash-based approach which exists for arbitrary
// nested Values).
type varTable struct {
	paths []string
	index map[string]uint16
}

func newVarTable() *varTable {
	return &varTable{index: make(map[string]uint16)}
}

func (t *varTable) add(path string) (uint16, error) {
	if idx, ok := t.index[path]; ok {
		return idx, nil
	}
	if len(t.paths) >= MaxPoolEntries {
		return 0, rule.ErrCompileError.New("variable table exceeds 65535 entries")
	}
	idx := uint16(len(t.paths))
	t.paths = append(t.paths, path)
	t.index[path] = idx
	return idx, nil
}
