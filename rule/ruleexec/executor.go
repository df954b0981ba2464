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

// Package ruleexec runs one product's levels (rule/dag.Plan) against an
// execution context: per-level worker-pool parallelism, Tier-0/Tier-1
// selection and promotion, and the produced-value contract of spec.md
// §4.9/§7. Named after the teacher's sql/rowexec (row-at-a-time execution
// of a query plan) — this package is rule-at-a-time execution of a
// dependency level.
package ruleexec

import (
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/bytecode"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/dag"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/expression"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/vm"
)

// DefaultPromotionThreshold is the invocation count at which a rule's
// expression is compiled to bytecode and promoted to Tier 1 (spec.md §4.9).
const DefaultPromotionThreshold = 100

// Options configures one Execute call.
type Options struct {
	// PromotionThreshold overrides DefaultPromotionThreshold when positive.
	PromotionThreshold int64
	// MaxWorkers bounds per-level concurrency; non-positive means
	// unbounded (one goroutine per rule in the level).
	MaxWorkers int
	// Strict aborts the whole evaluation on the first rule-level failure
	// instead of recording it in PerRule and continuing (spec.md §7).
	Strict bool
	Tracer opentracing.Tracer
	Logger *logrus.Logger
}

func (o Options) threshold() int64 {
	if o.PromotionThreshold > 0 {
		return o.PromotionThreshold
	}
	return DefaultPromotionThreshold
}

func (o Options) tracer() opentracing.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}
	return opentracing.NoopTracer{}
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// Execute runs plan's levels against ctx, using exprs to look up (and
// lazily populate) each rule's rule.CachedExpression. Levels are strict
// barriers (spec.md §5): every rule of level N completes, successfully or
// not, before level N+1 starts. A structural error (DeadlineExceeded here;
// CycleDetected/DuplicateOutput/ParseError are raised earlier, by dag.Build
// or the parser) stops the evaluation before starting the next level.
func Execute(product rule.Product, plan dag.Plan, ctx *rule.ExecutionContext, exprs *rule.DefinitionCaches, opts Options) (rule.ProductResult, error) {
	span := opts.tracer().StartSpan("ruleexec.Execute")
	span.SetTag("evaluation_id", ctx.EvaluationID.String())
	span.SetTag("product_id", product.ID)
	defer span.Finish()

	start := time.Now()
	byID := make(map[string]rule.RuleDefinition, len(product.Rules))
	for _, r := range product.EnabledRules() {
		byID[r.ID] = r
	}

	result := rule.ProductResult{Levels: len(plan.Levels)}
	for levelIdx, level := range plan.Levels {
		if ctx.PastDeadline() {
			result.TotalNanos = time.Since(start).Nanoseconds()
			return result, rule.ErrDeadlineExceeded.New()
		}
		outcomes := runLevel(product.ID, level, byID, ctx, exprs, opts, levelIdx)
		result.PerRule = append(result.PerRule, outcomes...)
		if opts.Strict {
			for _, o := range outcomes {
				if o.Err != nil {
					result.Outputs = ctx.Outputs()
					result.TotalNanos = time.Since(start).Nanoseconds()
					return result, o.Err
				}
			}
		}
	}
	result.Outputs = ctx.Outputs()
	result.TotalNanos = time.Since(start).Nanoseconds()
	return result, nil
}

// runLevel evaluates every rule in level concurrently, bounded by
// opts.MaxWorkers, and returns one RuleOutcome per rule. Rules in a level
// declare disjoint outputs and read only values already in the context
// (spec.md §5), so no ordering between them is required.
func runLevel(productID string, level dag.Level, byID map[string]rule.RuleDefinition, ctx *rule.ExecutionContext, exprs *rule.DefinitionCaches, opts Options, levelIdx int) []rule.RuleOutcome {
	outcomes := make([]rule.RuleOutcome, len(level))
	var sem chan struct{}
	if opts.MaxWorkers > 0 {
		sem = make(chan struct{}, opts.MaxWorkers)
	}
	var wg sync.WaitGroup
	for i, ruleID := range level {
		i, ruleID := i, ruleID
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			outcomes[i] = evaluateRule(productID, byID[ruleID], ctx, exprs, opts, levelIdx)
		}()
	}
	wg.Wait()
	return outcomes
}

// evaluateRule implements spec.md §4.9's five steps for one rule.
func evaluateRule(productID string, r rule.RuleDefinition, ctx *rule.ExecutionContext, exprs *rule.DefinitionCaches, opts Options, levelIdx int) rule.RuleOutcome {
	outcome := rule.RuleOutcome{RuleID: r.ID, StartNanos: time.Now().UnixNano()}
	logger := opts.logger().WithFields(logrus.Fields{
		"evaluation_id": ctx.EvaluationID.String(),
		"product_id":    productID,
		"rule_id":       r.ID,
		"level":         levelIdx,
	})

	cached, err := cachedExpressionFor(productID, r, exprs)
	if err != nil {
		outcome.Err = err
		outcome.EndNanos = time.Now().UnixNano()
		logger.WithError(err).Warn("rule parse failed")
		return outcome
	}

	invocations := cached.IncrementInvocations()
	tier := rule.Tier0
	var program *bytecode.Program
	if prog := cached.Program(); prog != nil {
		program = prog.(*bytecode.Program)
		tier = rule.Tier1
	} else if invocations >= opts.threshold() {
		tree := cached.Tree.(*expression.Node)
		promoted, compileErr := cached.TryPromote(func() (rule.CompiledProgram, error) {
			return bytecode.Compile(r.ID, tree)
		})
		if compileErr != nil {
			logger.WithError(compileErr).Warn("bytecode promotion failed; staying on tier 0")
		} else if promoted != nil {
			program = promoted.(*bytecode.Program)
			tier = rule.Tier1
		}
	}
	outcome.Tier = tier

	var result rule.Value
	if tier == rule.Tier1 {
		result, err = vm.Run(program, ctx)
	} else {
		result, err = expression.Eval(cached.Tree.(*expression.Node), ctx)
	}
	if err != nil {
		outcome.Err = err
		outcome.EndNanos = time.Now().UnixNano()
		logger.WithError(err).Warn("rule evaluation failed")
		return outcome
	}

	if err := bindOutputs(r, result, ctx); err != nil {
		outcome.Err = err
		outcome.EndNanos = time.Now().UnixNano()
		logger.WithError(err).Warn("rule output binding failed")
		return outcome
	}

	outcome.EndNanos = time.Now().UnixNano()
	logger.WithField("tier", tier).Debug("rule evaluated")
	return outcome
}

// bindOutputs implements the produced-value contract of spec.md §4.9: a
// single-output rule binds its result directly; a multi-output rule's
// result must be an Object carrying every declared output as a key.
func bindOutputs(r rule.RuleDefinition, result rule.Value, ctx *rule.ExecutionContext) error {
	if len(r.Outputs) == 1 {
		ctx.Set(r.Outputs[0], result)
		return nil
	}
	if result.Kind() != rule.KindObject {
		return rule.ErrOutputUnbound.New(r.ID, r.Outputs[0])
	}
	fields := result.AsObject()
	for _, out := range r.Outputs {
		v, ok := fields[out]
		if !ok {
			return rule.ErrOutputUnbound.New(r.ID, out)
		}
		ctx.Set(out, v)
	}
	return nil
}

// cachedExpressionFor returns the rule's CachedExpression, populating
// exprs.Compiled on first use by parsing r.Logic into an expression tree
// (spec.md §4.9 step 1: "parsed on first use and retained").
func cachedExpressionFor(productID string, r rule.RuleDefinition, exprs *rule.DefinitionCaches) (*rule.CachedExpression, error) {
	key := productID + "/" + r.ID
	if cached, err := exprs.Compiled.Get(key); err == nil {
		return cached, nil
	}
	tree, err := expression.Parse(r.Logic)
	if err != nil {
		return nil, err
	}
	cached := rule.NewCachedExpression(r.ID, tree)
	exprs.Compiled.Put(key, cached)
	return cached, nil
}
