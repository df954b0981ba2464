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

// Command rulelint loads a product definition from a YAML file and prints
// the result of ValidateRules and BuildExecutionPlan, so an operator can
// check a product's rule set before it reaches the surrounding
// persistence/transport layer.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	ruleengine "github.com/ayushmaanbhav/product-farm-sub000"
	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

// productFile is the on-disk YAML shape rulelint reads. Logic is decoded
// generically (interface{}) and then normalized to JSON-shaped values,
// since yaml.v2 decodes mappings as map[interface{}]interface{} while
// rule/expression.Parse only accepts map[string]interface{}/[]interface{}
// (the shapes encoding/json.Unmarshal produces).
type productFile struct {
	ID         string              `yaml:"id"`
	Name       string              `yaml:"name"`
	Attributes []attributeFile     `yaml:"attributes"`
	Rules      []ruleDefinitionFile `yaml:"rules"`
}

type attributeFile struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind"`
	Role string `yaml:"role"`
}

type ruleDefinitionFile struct {
	ID      string      `yaml:"id"`
	Inputs  []string    `yaml:"inputs"`
	Outputs []string    `yaml:"outputs"`
	Logic   interface{} `yaml:"logic"`
	Enabled bool        `yaml:"enabled"`
	Order   int         `yaml:"order"`
}

// singleProductStore is a fixed ruleengine.ProductStore over one already-
// loaded product, standing in for whatever the surrounding server's real
// store looks like.
type singleProductStore struct {
	product rule.Product
}

func (s singleProductStore) ProductByID(id string) (rule.Product, bool) {
	if id != s.product.ID {
		return rule.Product{}, false
	}
	return s.product, true
}

func main() {
	path := flag.String("product", "", "path to a product definition YAML file")
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: rulelint -product path/to/product.yaml")
		os.Exit(2)
	}

	product, err := loadProduct(*path)
	if err != nil {
		log.Fatalf("rulelint: %v", err)
	}

	engine := ruleengine.NewDefault(singleProductStore{product: product})

	report, err := engine.ValidateRules(product.ID)
	if err != nil {
		log.Fatalf("rulelint: validate: %v", err)
	}
	printValidation(report)

	plan, err := engine.BuildExecutionPlan(product.ID)
	if err != nil {
		log.Fatalf("rulelint: plan: %v", err)
	}
	printPlan(plan)

	if !report.Valid || plan.HasCycle {
		os.Exit(1)
	}
}

func loadProduct(path string) (rule.Product, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return rule.Product{}, err
	}
	var pf productFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return rule.Product{}, errors.Wrap(err, "parsing "+path)
	}

	attrs := make([]rule.Attribute, len(pf.Attributes))
	for i, a := range pf.Attributes {
		attrs[i] = rule.Attribute{Path: a.Path, Kind: parseKind(a.Kind), Role: parseRole(a.Role)}
	}

	rules := make([]rule.RuleDefinition, len(pf.Rules))
	for i, r := range pf.Rules {
		rules[i] = rule.RuleDefinition{
			ID:      r.ID,
			Inputs:  r.Inputs,
			Outputs: r.Outputs,
			Logic:   normalizeYAML(r.Logic),
			Enabled: r.Enabled,
			Order:   r.Order,
		}
	}

	return rule.Product{ID: pf.ID, Name: pf.Name, Attributes: attrs, Rules: rules}, nil
}

// normalizeYAML recursively rewrites a yaml.v2-decoded value tree into the
// JSON-shaped tree rule/expression.Parse expects: map[interface{}]interface{}
// becomes map[string]interface{}, and every nested []interface{}/map is
// normalized the same way. Scalars pass through unchanged.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return t
	}
}

func parseKind(s string) rule.Kind {
	switch s {
	case "bool":
		return rule.KindBool
	case "int":
		return rule.KindInt
	case "float":
		return rule.KindFloat
	case "decimal":
		return rule.KindDecimal
	case "string":
		return rule.KindString
	case "array":
		return rule.KindArray
	case "object":
		return rule.KindObject
	default:
		return rule.KindNull
	}
}

func parseRole(s string) rule.AttributeRole {
	switch s {
	case "input_only":
		return rule.RoleInputOnly
	case "output_only":
		return rule.RoleOutputOnly
	default:
		return rule.RoleEither
	}
}

func printValidation(report rule.ValidationReport) {
	fmt.Printf("valid: %v\n", report.Valid)
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

func printPlan(plan rule.ExecutionPlan) {
	if plan.HasCycle {
		fmt.Printf("has_cycle: true, cycle: %v\n", plan.CycleIDs)
		return
	}
	for i, level := range plan.Levels {
		fmt.Printf("level %d: %v\n", i, level)
	}
	for _, e := range plan.Edges {
		fmt.Printf("edge: %s -> %s\n", e[0], e[1])
	}
}
