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

import (
	"math"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// Parse turns a JSON-shaped term (the result of json.Unmarshal into
// interface{}, or an equivalent hand-built value) into an expression tree,
// following spec.md §4.2's four parse rules. It fails with a
// rule.ErrParseError-wrapped error for an unknown operator, a malformed
// var path, or an arity violation.
func Parse(term interface{}) (*Node, error) {
	switch t := term.(type) {
	case map[string]interface{}:
		return parseOp(t)
	case []interface{}:
		elems := make([]rule.Value, len(t))
		for i, e := range t {
			n, err := Parse(e)
			if err != nil {
				return nil, err
			}
			if n.Kind != NodeLiteral {
				// An array literal containing a non-literal (e.g. a
				// nested operator) is itself an Op(ArrayNew) of children,
				// not a single Literal(Array) node.
				return parseArrayOfNodes(t)
			}
			elems[i] = n.Literal
		}
		return &Node{Kind: NodeLiteral, Literal: rule.ArraySlice(elems)}, nil
	case float64:
		// encoding/json decodes every JSON number as float64: an integral
		// one is taken as an Int literal, any other as a Float.
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return &Node{Kind: NodeLiteral, Literal: rule.Int(int64(t))}, nil
		}
		return &Node{Kind: NodeLiteral, Literal: rule.Float(t)}, nil
	default:
		return &Node{Kind: NodeLiteral, Literal: rule.FromGo(t)}, nil
	}
}

// parseArrayOfNodes handles a JSON array where at least one element is not
// a plain literal (e.g. [{"var":"x"}, 1]): represented as an Op("array",
// ...) node so the Tier-0/Tier-1 evaluators build an Array Value from
// evaluated children at runtime.
func parseArrayOfNodes(elems []interface{}) (*Node, error) {
	args := make([]*Node, len(elems))
	for i, e := range elems {
		n, err := Parse(e)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Kind: NodeOp, Op: "array", Args: args}, nil
}

func parseOp(obj map[string]interface{}) (*Node, error) {
	if len(obj) != 1 {
		// spec.md §4.2 rule 1 requires exactly one key; a JSON object
		// with zero or multiple keys that isn't an operator form is
		// treated as an opaque Object literal instead (e.g. data payloads
		// passed through `cat`/`merge`).
		return parseObjectLiteral(obj)
	}
	var name string
	var raw interface{}
	for k, v := range obj {
		name, raw = k, v
	}
	if !KnownOperator(name) {
		return nil, rule.ErrParseError.New("unknown operator " + name)
	}

	switch name {
	case "var":
		return parseVar(raw)
	case "missing":
		return parseMissing(raw)
	case "missing_some":
		return parseMissingSome(raw)
	default:
		return parseGenericOp(name, raw)
	}
}

func parseObjectLiteral(obj map[string]interface{}) (*Node, error) {
	fields := make(map[string]rule.Value, len(obj))
	for k, v := range obj {
		n, err := Parse(v)
		if err != nil {
			return nil, err
		}
		if n.Kind != NodeLiteral {
			return nil, rule.ErrParseError.New("object field " + k + " must be a literal")
		}
		fields[k] = n.Literal
	}
	return &Node{Kind: NodeLiteral, Literal: rule.Object(fields)}, nil
}

func parseGenericOp(name string, raw interface{}) (*Node, error) {
	argTerms := asArgList(raw)
	if err := checkArity(name, len(argTerms)); err != nil {
		return nil, rule.ErrParseError.New(err.Error())
	}
	args := make([]*Node, len(argTerms))
	for i, a := range argTerms {
		n, err := Parse(a)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Kind: NodeOp, Op: name, Args: args}, nil
}

// asArgList implements spec.md §4.2 rule 1's "the associated value is
// either a single argument (wrapped into a one-element list) or an
// ordered list of arguments".
func asArgList(raw interface{}) []interface{} {
	if list, ok := raw.([]interface{}); ok {
		return list
	}
	return []interface{}{raw}
}

// parseVar implements spec.md §4.2 rule 3: a string path, a two-element
// [path, default] list, or "" meaning "current element".
func parseVar(raw interface{}) (*Node, error) {
	switch t := raw.(type) {
	case string:
		return &Node{Kind: NodeVariable, Path: t}, nil
	case []interface{}:
		if len(t) == 0 || len(t) > 2 {
			return nil, rule.ErrParseError.New("var requires a path or [path, default]")
		}
		path, ok := t[0].(string)
		if !ok {
			return nil, rule.ErrParseError.New("var path must be a string")
		}
		n := &Node{Kind: NodeVariable, Path: path}
		if len(t) == 2 {
			defNode, err := Parse(t[1])
			if err != nil {
				return nil, err
			}
			n.Default = defNode
		}
		return n, nil
	case nil:
		return &Node{Kind: NodeVariable, Path: ""}, nil
	default:
		return nil, rule.ErrParseError.New("var path must be a string")
	}
}

func parseMissing(raw interface{}) (*Node, error) {
	argTerms := asArgList(raw)
	args := make([]*Node, len(argTerms))
	for i, a := range argTerms {
		n, err := Parse(a)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Kind: NodeOp, Op: "missing", Args: args}, nil
}

func parseMissingSome(raw interface{}) (*Node, error) {
	list, ok := raw.([]interface{})
	if !ok || len(list) != 2 {
		return nil, rule.ErrParseError.New("missing_some requires [min, [paths...]]")
	}
	minNode, err := Parse(list[0])
	if err != nil {
		return nil, err
	}
	pathsNode, err := Parse(list[1])
	if err != nil {
		return nil, err
	}
	return &Node{Kind: NodeOp, Op: "missing_some", Args: []*Node{minNode, pathsNode}}, nil
}
