package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dataset"
	"github.com/leapstack-labs/leapdq/pkg/rule"
)

const probeColumn = "_leapdq_probe"

// emptyOutcomes is the value of an outcome column with no rules of its
// criticality.
var emptyOutcomes = fmt.Sprintf("CAST([] AS %s)", core.OutcomeType)

// plan is a bound rule set ready to project onto one dataset.
type plan struct {
	runID string
	rules []rule.Bound
}

func (p *plan) count(c core.Criticality) int {
	n := 0
	for _, r := range p.rules {
		if r.Criticality == c {
			n++
		}
	}
	return n
}

func (p *plan) functions() []string {
	seen := make(map[string]bool, len(p.rules))
	var names []string
	for _, r := range p.rules {
		if !seen[r.Function] {
			seen[r.Function] = true
			names = append(names, r.Function)
		}
	}
	return names
}

// outcomeItem renders the per-row outcome of one rule: a name/message
// struct when the predicate is TRUE, NULL otherwise.
func outcomeItem(r rule.Bound) string {
	return fmt.Sprintf(
		"CASE WHEN COALESCE((%s), FALSE) THEN {'name': %s, 'message': CAST((%s) AS VARCHAR)} END",
		r.Condition.Predicate, check.QuoteString(r.ID), r.Condition.Message,
	)
}

// outcomeColumn combines every rule of one criticality, in rule order, into
// a list expression with failed rules only.
func (p *plan) outcomeColumn(c core.Criticality) string {
	var items []string
	for _, r := range p.rules {
		if r.Criticality == c {
			items = append(items, outcomeItem(r))
		}
	}
	if len(items) == 0 {
		return emptyOutcomes
	}
	return fmt.Sprintf("list_filter([%s], _o -> _o IS NOT NULL)", strings.Join(items, ", "))
}

func (p *plan) exprs() []dataset.Expr {
	levels := core.Criticalities()
	exprs := make([]dataset.Expr, 0, len(levels))
	for _, c := range levels {
		exprs = append(exprs, dataset.Expr{Name: c.Column(), SQL: p.outcomeColumn(c)})
	}
	return exprs
}

// checkSchema rejects rules targeting columns the dataset lacks and
// datasets that already carry outcome columns.
func (p *plan) checkSchema(ds *dataset.Dataset) error {
	for _, c := range core.Criticalities() {
		name := c.Column()
		if _, ok := ds.Column(name); ok {
			return &core.ConfigurationError{
				Field:   "dataset",
				Message: fmt.Sprintf("dataset already has outcome column %q", name),
			}
		}
	}
	for _, r := range p.rules {
		for _, col := range r.Columns {
			if _, ok := ds.Column(col); !ok {
				return &core.ConfigurationError{
					RuleID:  r.ID,
					Field:   "check.arguments",
					Message: fmt.Sprintf("column %q not found in dataset", col),
				}
			}
		}
	}
	return nil
}

// annotate projects the outcome columns onto ds in one query. Bind-time
// failures are attributed to a rule before returning, runtime failures
// when the result is materialized.
func (p *plan) annotate(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := p.checkSchema(ds); err != nil {
		return nil, err
	}

	base := dataset.New(ds.Engine(), ds.SQL(), ds.Schema())
	out, err := ds.WithColumns(ctx, p.exprs()...)
	if err != nil {
		return nil, p.diagnoseBind(ctx, base, err)
	}
	return out.WithErrorHandler(func(ctx context.Context, err error) error {
		return p.diagnoseRuntime(ctx, base, err)
	}), nil
}

// diagnoseBind binds each rule on its own to find the one the engine
// rejected.
func (p *plan) diagnoseBind(ctx context.Context, base *dataset.Dataset, cause error) error {
	for _, r := range p.rules {
		if _, err := base.WithColumns(ctx, dataset.Expr{Name: probeColumn, SQL: outcomeItem(r)}); err != nil {
			return &core.EvaluationError{RuleID: r.ID, Function: r.Function, Err: err}
		}
	}
	return &core.EvaluationError{Err: cause}
}

// diagnoseRuntime evaluates each rule on its own over every row to find
// the one that failed while the data was read.
func (p *plan) diagnoseRuntime(ctx context.Context, base *dataset.Dataset, cause error) error {
	if ctx.Err() != nil {
		return cause
	}
	for _, r := range p.rules {
		probe, err := base.WithColumns(ctx, dataset.Expr{Name: probeColumn, SQL: outcomeItem(r)})
		if err != nil {
			return &core.EvaluationError{RuleID: r.ID, Function: r.Function, Err: err}
		}
		if _, err := probe.Filter(dataset.QuoteIdent(probeColumn) + " IS NOT NULL").Count(ctx); err != nil {
			return &core.EvaluationError{RuleID: r.ID, Function: r.Function, Err: err}
		}
	}
	return &core.EvaluationError{Err: cause}
}
