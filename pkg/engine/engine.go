// Package engine evaluates data quality rules against a dataset.
//
// Every rule is compiled into one SQL expression and all of them are
// projected onto the dataset in a single query, producing two outcome
// columns (core.ErrorsColumn and core.WarningsColumn) that list the rules
// each row failed. Split mode partitions the annotated rows: any outcome,
// error or warning, quarantines a row.
//
// The engine holds no per-call state and is safe for concurrent use.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dataset"
	"github.com/leapstack-labs/leapdq/pkg/metadata"
	"github.com/leapstack-labs/leapdq/pkg/rule"
)

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Now is the reference clock for temporal checks (optional, uses time.Now)
	Now func() time.Time
	// Registry resolves check functions (optional, uses check.Default())
	Registry check.Resolver
	// Metrics records evaluation metrics (optional)
	Metrics *Metrics
}

// Engine evaluates rule sets.
type Engine struct {
	logger   *slog.Logger
	now      func() time.Time
	registry check.Resolver
	metrics  *Metrics
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	registry := cfg.Registry
	if registry == nil {
		registry = check.Default()
	}
	return &Engine{logger: logger, now: now, registry: registry, metrics: cfg.Metrics}
}

const (
	modeAnnotate = "annotate"
	modeSplit    = "split"

	sourceCode     = "code"
	sourceMetadata = "metadata"
)

// Annotate returns ds with the two outcome columns appended. Rows and
// their original columns are unchanged.
func (e *Engine) Annotate(ctx context.Context, ds *dataset.Dataset, rules []rule.Rule) (*dataset.Dataset, error) {
	e.metrics.recordEvaluation(modeAnnotate, sourceCode)
	out, err := e.annotate(ctx, ds, func(env check.Env) ([]rule.Bound, error) {
		return rule.Resolve(rules, e.registry, env)
	})
	e.metrics.recordFailure(err)
	return out, err
}

// Split evaluates rules and partitions ds into rows without any outcome
// and rows with at least one.
func (e *Engine) Split(ctx context.Context, ds *dataset.Dataset, rules []rule.Rule) (valid, quarantined *dataset.Dataset, err error) {
	e.metrics.recordEvaluation(modeSplit, sourceCode)
	annotated, err := e.annotate(ctx, ds, func(env check.Env) ([]rule.Bound, error) {
		return rule.Resolve(rules, e.registry, env)
	})
	if err != nil {
		e.metrics.recordFailure(err)
		return nil, nil, err
	}
	return SplitAnnotated(annotated, core.ErrorsColumn, core.WarningsColumn)
}

// AnnotateByMetadata validates checks and annotates ds with them. Functions
// in ns, when given, shadow the engine's registry for this call only. Any
// validation problem fails the call with core.ValidationErrors.
func (e *Engine) AnnotateByMetadata(ctx context.Context, ds *dataset.Dataset, checks []map[string]any, ns *check.Namespace) (*dataset.Dataset, error) {
	e.metrics.recordEvaluation(modeAnnotate, sourceMetadata)
	out, err := e.annotate(ctx, ds, e.metadataResolver(checks, ns))
	e.metrics.recordFailure(err)
	return out, err
}

// SplitByMetadata validates checks and splits ds with them.
func (e *Engine) SplitByMetadata(ctx context.Context, ds *dataset.Dataset, checks []map[string]any, ns *check.Namespace) (valid, quarantined *dataset.Dataset, err error) {
	e.metrics.recordEvaluation(modeSplit, sourceMetadata)
	annotated, err := e.annotate(ctx, ds, e.metadataResolver(checks, ns))
	if err != nil {
		e.metrics.recordFailure(err)
		return nil, nil, err
	}
	return SplitAnnotated(annotated, core.ErrorsColumn, core.WarningsColumn)
}

// Validate reports every problem in checks without touching any dataset.
func (e *Engine) Validate(checks []map[string]any, ns *check.Namespace) core.ValidationErrors {
	return metadata.Validate(checks, e.resolver(ns))
}

func (e *Engine) resolver(ns *check.Namespace) check.Resolver {
	if ns == nil {
		return e.registry
	}
	return check.WithNamespace(e.registry, ns)
}

func (e *Engine) metadataResolver(checks []map[string]any, ns *check.Namespace) func(check.Env) ([]rule.Bound, error) {
	return func(env check.Env) ([]rule.Bound, error) {
		bound, errs := metadata.Resolve(checks, e.resolver(ns), env)
		if len(errs) > 0 {
			return nil, errs
		}
		return bound, nil
	}
}

func (e *Engine) annotate(ctx context.Context, ds *dataset.Dataset, resolve func(check.Env) ([]rule.Bound, error)) (*dataset.Dataset, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.With("run_id", runID)

	env := check.Env{Now: e.now()}
	bound, err := resolve(env)
	if err != nil {
		log.Warn("rule set rejected", "error", err)
		return nil, err
	}

	p := &plan{runID: runID, rules: bound}
	for _, r := range p.rules {
		log.Debug("rule bound",
			"rule_id", r.ID,
			"function", r.Function,
			"criticality", r.Criticality.String(),
			"columns", r.Columns,
		)
	}

	out, err := p.annotate(ctx, ds)
	if err != nil {
		log.Warn("evaluation plan failed", "error", err)
		return nil, err
	}

	e.metrics.recordPlan(p, time.Since(start))
	log.Info("evaluation planned",
		"errors", p.count(core.CriticalityError),
		"warnings", p.count(core.CriticalityWarn),
		"functions", p.functions(),
		"reference_time", env.Now,
	)
	return out, nil
}
