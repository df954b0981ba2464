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

package ops

import (
	"strings"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// Merge implements "merge": flattens every Array argument one level and
// appends every non-Array argument as a single element, in order.
func Merge(vs ...rule.Value) rule.Value {
	var out []rule.Value
	for _, v := range vs {
		if v.Kind() == rule.KindArray {
			out = append(out, v.AsArray()...)
		} else {
			out = append(out, v)
		}
	}
	return rule.ArraySlice(out)
}

// In implements "in": for a String container, substring search on the
// string-context rendering of element; for an Array container, element
// equality (strict Value.Equal) against each member; any other container
// kind is false.
func In(element, container rule.Value) rule.Value {
	switch container.Kind() {
	case rule.KindString:
		needle := element.ToStringContext()
		return rule.Bool(strings.Contains(container.AsString(), needle))
	case rule.KindArray:
		for _, v := range container.AsArray() {
			if v.Equal(element) {
				return rule.Bool(true)
			}
		}
		return rule.Bool(false)
	default:
		return rule.Bool(false)
	}
}
