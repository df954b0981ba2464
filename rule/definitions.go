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

// RuleDefinition is the unit of work the core consumes: an id, its declared
// input/output attribute paths, the JSON Logic term (kept as a raw
// interface{}, the shape accepted by encoding/json.Unmarshal), an enabled
// flag, and an order index used only to break level-local ties.
type RuleDefinition struct {
	ID      string
	Inputs  []string
	Outputs []string
	Logic   interface{}
	Enabled bool
	Order   int
}

// AttributeRole describes how an attribute is declared to participate in a
// product's rule set.
type AttributeRole int

const (
	RoleEither AttributeRole = iota
	RoleInputOnly
	RoleOutputOnly
)

// Attribute is a cacheable (path, kind, role) triple describing one entry
// of a product's schema. It is advisory: the engine does not refuse a rule
// whose declared input/output isn't backed by an Attribute, since rules
// reference attributes by path only (spec.md §3).
type Attribute struct {
	Path string
	Kind Kind
	Role AttributeRole
}

// Product aggregates a product id, a display name, its attribute schema,
// and its ordered rule set. It is the unit the four public operations of
// spec.md §6 operate on.
type Product struct {
	ID         string
	Name       string
	Attributes []Attribute
	Rules      []RuleDefinition
}

// EnabledRules returns the subset of p.Rules with Enabled set, in their
// original declared order.
func (p Product) EnabledRules() []RuleDefinition {
	out := make([]RuleDefinition, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// RuleByID returns the rule with the given id and whether it was found.
func (p Product) RuleByID(id string) (RuleDefinition, bool) {
	for _, r := range p.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return RuleDefinition{}, false
}
