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

// Package expression holds the parsed representation of a JSON Logic term
// (spec.md §3 "Expression tree") and the Tier-0 interpreter that walks it
// directly (spec.md §4.3). The bytecode compiler (rule/bytecode) lowers
// the same tree into a linear program; both tiers delegate operator
// semantics to rule/ops so Tier-0 and Tier-1 agree by construction.
package expression

import (
	"fmt"
	"strings"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// NodeKind tags the three expression tree node shapes of spec.md §3.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeVariable
	NodeOp
)

// Node is one node of a parsed JSON Logic term. The tree is finite and
// acyclic by construction (the parser never creates back-references).
type Node struct {
	Kind NodeKind

	// NodeLiteral
	Literal rule.Value

	// NodeVariable
	Path    string
	Default *Node // nil if no default was given

	// NodeOp
	Op   string
	Args []*Node
}

// TreeString implements rule.ExpressionTree so a *Node can be stored in a
// rule.CachedExpression without that package importing this one.
func (n *Node) TreeString() string {
	var sb strings.Builder
	n.writeString(&sb)
	return sb.String()
}

func (n *Node) writeString(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case NodeLiteral:
		fmt.Fprintf(sb, "%v", n.Literal.ToGo())
	case NodeVariable:
		fmt.Fprintf(sb, "var(%q", n.Path)
		if n.Default != nil {
			sb.WriteString(", ")
			n.Default.writeString(sb)
		}
		sb.WriteString(")")
	case NodeOp:
		fmt.Fprintf(sb, "%s(", n.Op)
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.writeString(sb)
		}
		sb.WriteString(")")
	}
}

// Walk calls visit on n and every descendant, depth-first, pre-order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	if n.Kind == NodeVariable && n.Default != nil {
		Walk(n.Default, visit)
	}
	for _, a := range n.Args {
		Walk(a, visit)
	}
}
