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

// Package ruleengine is the root of the module and the surrounding server's
// sole entry point into the core (spec.md §6): it owns the bounded
// definition/expression caches, the worker-pool and tier-promotion
// configuration, and the tracer, and exposes EvaluateRule, EvaluateProduct,
// BuildExecutionPlan and ValidateRules. Modeled on the teacher's
// sqle.Engine/Config/New/NewDefault shape (engine.go).
package ruleengine

import (
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/dag"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/expression"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/ruleexec"
)

// DefaultCacheCapacity bounds each of the four definition/expression caches
// when Config doesn't override it.
const DefaultCacheCapacity = 1024

// ProductStore resolves a product id to its definition (schema, rule set).
// The engine never mutates the store; writes and invalidation are the
// caller's responsibility (spec.md §5: "Writes to any definition invalidate
// corresponding cache entries for that product" — callers that write
// through a ProductStore implementation should also call
// Engine.InvalidateProduct).
type ProductStore interface {
	ProductByID(id string) (rule.Product, bool)
}

// Config configures an Engine. A zero Config is valid; New fills in
// defaults for any zero field.
type Config struct {
	// PromotionThreshold overrides ruleexec.DefaultPromotionThreshold when
	// positive (spec.md §4.9).
	PromotionThreshold int64
	// MaxWorkers bounds per-level concurrency; non-positive means
	// unbounded (spec.md §5).
	MaxWorkers int
	// CacheCapacity overrides DefaultCacheCapacity when positive.
	CacheCapacity int
	Tracer        opentracing.Tracer
	Logger        *logrus.Logger
}

// Engine is the rule evaluation core.
type Engine struct {
	Store  ProductStore
	Caches *rule.DefinitionCaches

	execOpts ruleexec.Options
}

// New creates an Engine backed by store, with custom configuration. To use
// default settings, use NewDefault.
func New(store ProductStore, cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Engine{
		Store:  store,
		Caches: rule.NewDefinitionCaches(capacity),
		execOpts: ruleexec.Options{
			PromotionThreshold: cfg.PromotionThreshold,
			MaxWorkers:         cfg.MaxWorkers,
			Tracer:             cfg.Tracer,
			Logger:             cfg.Logger,
		},
	}
}

// NewDefault creates an Engine backed by store with default configuration.
func NewDefault(store ProductStore) *Engine {
	return New(store, nil)
}

// InvalidateProduct evicts productID's cached product record, attribute
// schema, rule list, and every listed rule's compiled-expression cache
// entry. Callers that write a product definition through their own
// ProductStore implementation must call this afterward for the change to
// be visible to subsequent EvaluateProduct/BuildExecutionPlan calls.
func (e *Engine) InvalidateProduct(productID string, ruleIDs []string) {
	e.Caches.InvalidateProduct(productID, ruleIDs)
}

// EvaluateRule evaluates a single rule definition against ctx, independent
// of any product (spec.md §6). Because the rule isn't attached to a
// product, its parsed expression is not cached across calls: each call
// parses r.Logic fresh and runs it once, always at Tier 0. Callers that
// need tier promotion and expression caching for repeated invocations of
// the same rule should route it through a Product and EvaluateProduct
// instead.
func (e *Engine) EvaluateRule(r rule.RuleDefinition, ctx *rule.ExecutionContext) (rule.EvalResult, error) {
	start := time.Now()
	tree, err := expression.Parse(r.Logic)
	if err != nil {
		return rule.EvalResult{}, err
	}
	value, err := expression.Eval(tree, ctx)
	if err != nil {
		return rule.EvalResult{}, err
	}
	return rule.EvalResult{
		Value:         value,
		Tier:          rule.Tier0,
		DurationNanos: time.Since(start).Nanoseconds(),
	}, nil
}

// EvaluateProduct runs every enabled rule of the product identified by
// productID, level by level, against a fresh ExecutionContext seeded with
// inputs (spec.md §6).
func (e *Engine) EvaluateProduct(productID string, inputs map[string]rule.Value, opts rule.EvalOptions) (rule.ProductResult, error) {
	product, err := e.lookupProduct(productID)
	if err != nil {
		return rule.ProductResult{}, err
	}

	plan, err := e.buildPlan(product)
	if err != nil {
		return rule.ProductResult{}, err
	}

	ctx := rule.NewExecutionContext(inputs)
	if !opts.Deadline.IsZero() {
		ctx.Deadline = opts.Deadline
	}

	execOpts := e.execOpts
	execOpts.Strict = opts.Strict
	if opts.PromotionThreshold > 0 {
		execOpts.PromotionThreshold = opts.PromotionThreshold
	}
	if opts.MaxWorkers > 0 {
		execOpts.MaxWorkers = opts.MaxWorkers
	}

	return ruleexec.Execute(product, plan, ctx, e.Caches, execOpts)
}

// BuildExecutionPlan computes the level-parallel execution order of
// productID's enabled rules without running them (spec.md §6, §4.8).
func (e *Engine) BuildExecutionPlan(productID string) (rule.ExecutionPlan, error) {
	product, err := e.lookupProduct(productID)
	if err != nil {
		return rule.ExecutionPlan{}, err
	}
	plan, err := dag.Build(product.Rules)
	if err != nil {
		if rule.ErrCycleDetected.Is(err) {
			return rule.ExecutionPlan{HasCycle: true, CycleIDs: dag.CycleIDs(product.Rules)}, nil
		}
		return rule.ExecutionPlan{}, err
	}
	return toExecutionPlan(plan), nil
}

// ValidateRules dry-runs parse+compile for every enabled rule of productID
// and checks the dependency graph for duplicate outputs and cycles,
// without evaluating anything (spec.md §6).
func (e *Engine) ValidateRules(productID string) (rule.ValidationReport, error) {
	product, err := e.lookupProduct(productID)
	if err != nil {
		return rule.ValidationReport{}, err
	}

	report := rule.ValidationReport{Valid: true}

	for _, r := range product.EnabledRules() {
		tree, err := expression.Parse(r.Logic)
		if err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, r.ID+": "+err.Error())
			continue
		}
		if _, err := bytecode.Compile(r.ID, tree); err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, r.ID+": "+err.Error())
		}
	}

	plan, err := dag.Build(product.Rules)
	if err != nil {
		report.Valid = false
		if rule.ErrCycleDetected.Is(err) {
			report.Plan = rule.ExecutionPlan{HasCycle: true, CycleIDs: dag.CycleIDs(product.Rules)}
		}
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}
	report.Plan = toExecutionPlan(plan)
	return report, nil
}

func (e *Engine) lookupProduct(productID string) (rule.Product, error) {
	if cached, err := e.Caches.Products.Get(productID); err == nil {
		return cached, nil
	}
	product, ok := e.Store.ProductByID(productID)
	if !ok {
		return rule.Product{}, rule.ErrUnknownProduct.New(productID)
	}
	e.Caches.Products.Put(productID, product)
	return product, nil
}

func (e *Engine) buildPlan(product rule.Product) (dag.Plan, error) {
	if cached, err := e.Caches.Rules.Get(product.ID); err == nil {
		return dag.Build(cached)
	}
	e.Caches.Rules.Put(product.ID, product.Rules)
	return dag.Build(product.Rules)
}

func toExecutionPlan(plan dag.Plan) rule.ExecutionPlan {
	levels := make([][]string, len(plan.Levels))
	for i, l := range plan.Levels {
		levels[i] = append([]string{}, l...)
	}
	edges := make([][2]string, len(plan.Edges))
	copy(edges, plan.Edges)
	return rule.ExecutionPlan{Levels: levels, Edges: edges}
}

