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

// Cat implements "cat": concatenate every operand's string-context
// rendering (spec.md §4.1, §4.6).
func Cat(vs ...rule.Value) rule.Value {
	var sb strings.Builder
	for _, v := range vs {
		sb.WriteString(v.ToStringContext())
	}
	return rule.String(sb.String())
}

// Substr implements "substr(str, start)" and "substr(str, start, len)".
// start/len follow JSON Logic's convention: negative start counts from
// the end of the string; negative len trims that many characters off the
// end instead of limiting the substring length.
func Substr(s rule.Value, start rule.Value, length *rule.Value) (rule.Value, error) {
	str := s.ToStringContext()
	runes := []rune(str)
	n := len(runes)

	startN, err := start.ToNumber()
	if err != nil {
		return rule.Value{}, err
	}
	startIdx := int(mustInt(startN))
	if startIdx < 0 {
		startIdx = n + startIdx
		if startIdx < 0 {
			startIdx = 0
		}
	}
	if startIdx > n {
		startIdx = n
	}

	endIdx := n
	if length != nil {
		lengthN, err := length.ToNumber()
		if err != nil {
			return rule.Value{}, err
		}
		l := int(mustInt(lengthN))
		if l < 0 {
			endIdx = n + l
			if endIdx < startIdx {
				endIdx = startIdx
			}
		} else {
			endIdx = startIdx + l
			if endIdx > n {
				endIdx = n
			}
		}
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}
	return rule.String(string(runes[startIdx:endIdx])), nil
}

func mustInt(v rule.Value) int64 {
	switch v.Kind() {
	case rule.KindInt:
		return v.AsInt()
	case rule.KindFloat:
		return int64(v.AsFloat())
	case rule.KindDecimal:
		return v.AsDecimal().IntPart()
	default:
		return 0
	}
}
