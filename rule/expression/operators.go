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

import "fmt"

// arity describes the accepted argument count of an operator: [min, max].
// max of -1 means unbounded.
type arity struct {
	min, max int
}

func (a arity) allows(n int) bool {
	if n < a.min {
		return false
	}
	if a.max >= 0 && n > a.max {
		return false
	}
	return true
}

// operatorArity is consulted at parse time (spec.md §4.2: "Fails with
// ParseError when ... an operator's argument count lies outside its
// documented arity"). var/missing/missing_some have bespoke parsing rules
// (§4.2 points 3-4) and are not subject to this generic table; if is
// checked separately because its valid lengths are "odd", not a
// contiguous range.
var operatorArity = map[string]arity{
	"+":   {1, -1},
	"-":   {1, -1},
	"*":   {1, -1},
	"/":   {2, 2},
	"%":   {2, 2},
	"min": {1, -1},
	"max": {1, -1},

	"==":  {2, 2},
	"!=":  {2, 2},
	"===": {2, 2},
	"!==": {2, 2},
	"<":   {2, 2},
	"<=":  {2, 2},
	">":   {2, 2},
	">=":  {2, 2},

	"and": {1, -1},
	"or":  {1, -1},
	"!":   {1, 1},
	"!!":  {1, 1},

	"map":    {2, 2},
	"filter": {2, 2},
	"reduce": {3, 3},
	"all":    {2, 2},
	"some":   {2, 2},
	"none":   {2, 2},
	"merge":  {0, -1},
	"in":     {2, 2},

	"cat":    {0, -1},
	"substr": {2, 3},
}

// specialForms are operators parsed with their own bespoke rule rather
// than the generic arity table: var, missing, missing_some (§4.2) and if
// (§4.4, odd-length arity).
var specialForms = map[string]bool{
	"var": true, "missing": true, "missing_some": true, "if": true,
}

// KnownOperator reports whether name is a recognized operator symbol
// (either arity-tabled or a special form).
func KnownOperator(name string) bool {
	if _, ok := operatorArity[name]; ok {
		return true
	}
	return specialForms[name]
}

// checkArity validates an operator's argument count at parse time.
func checkArity(op string, n int) error {
	if op == "if" {
		if n < 1 || n%2 == 0 {
			return fmt.Errorf("%q requires an odd-length argument list, got %d", op, n)
		}
		return nil
	}
	if specialForms[op] {
		return nil // var/missing/missing_some validate their own shape
	}
	a, ok := operatorArity[op]
	if !ok {
		return fmt.Errorf("unknown operator %q", op)
	}
	if !a.allows(n) {
		return fmt.Errorf("%q takes between %d and %d arguments, got %d", op, a.min, a.max, n)
	}
	return nil
}
