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

import "github.com/ayushmaanbhav/product-farm-sub000/rule"

// Missing implements "missing": returns the subset of paths absent from
// ctx (spec.md §4.6, §4.7 "absence as a value").
func Missing(ctx *rule.ExecutionContext, paths []string) rule.Value {
	var out []rule.Value
	for _, p := range paths {
		if !ctx.Has(p) {
			out = append(out, rule.String(p))
		}
	}
	return rule.ArraySlice(out)
}

// MissingSome implements "missing_some(min, paths)": returns the list of
// missing paths, empty iff at least min of paths are present (spec.md §9
// open question, pinned: returns missing paths, not a boolean).
func MissingSome(ctx *rule.ExecutionContext, min int, paths []string) rule.Value {
	var missing []string
	present := 0
	for _, p := range paths {
		if ctx.Has(p) {
			present++
		} else {
			missing = append(missing, p)
		}
	}
	if present >= min {
		return rule.ArraySlice(nil)
	}
	out := make([]rule.Value, len(missing))
	for i, p := range missing {
		out[i] = rule.String(p)
	}
	return rule.ArraySlice(out)
}
