package cypher

import (
	"errors"
	"fmt"
	"time"

	"github.com/orneryd/quillgraph/pkg/graph"
)

// QueryStats summarizes one ExecuteQuery call, the way the teacher's
// StorageExecutor.Execute reports a duration/affected-count summary
// alongside its result value. Field names follow spec.md §4.8 literally.
type QueryStats struct {
	ReadOperations  int
	WriteOperations int
	ExecutionTimeMs int64
}

// GraphQueryResult is ExecuteQuery's return value: whether the statement
// ran cleanly, the matches it found, any action outcomes, the projected
// table, and a stats summary (spec.md §4.8).
type GraphQueryResult struct {
	Success   bool
	Statement string
	Error     error

	MatchCount int
	Actions    []*ActionListResult
	Query      *QueryResultData
	Stats      QueryStats
}

// ExecuteQuery is the engine façade (C8): it lexes and parses statement,
// matches it against g, filters by WHERE, runs CREATE/SET/DELETE against
// every surviving binding set, and projects RETURN — in that order, per
// spec.md §4.8.
func ExecuteQuery(g *graph.Graph, statement string, opts QueryOptions) *GraphQueryResult {
	start := time.Now()
	result := &GraphQueryResult{Statement: statement}
	finish := func() *GraphQueryResult {
		result.Stats.ExecutionTimeMs = time.Since(start).Milliseconds()
		return result
	}

	stmt := Parse(statement, opts.Lexer)
	if len(stmt.Errors) > 0 {
		msgs := make([]error, len(stmt.Errors))
		for i, e := range stmt.Errors {
			msgs[i] = errors.New(e.Message)
		}
		result.Error = fmt.Errorf("parse error: %w", errors.Join(msgs...))
		return finish()
	}

	evaluator := NewEvaluator(g, opts)
	bindingSets, err := matchStatement(g, opts, stmt)
	if err != nil {
		result.Error = err
		return finish()
	}
	if stmt.Where != nil {
		bindingSets = filterByWhere(evaluator, stmt.Where, bindingSets)
	}
	if opts.MaxMatches > 0 && len(bindingSets) > opts.MaxMatches {
		bindingSets = bindingSets[:opts.MaxMatches]
	}
	result.MatchCount = len(bindingSets)
	result.Stats.ReadOperations = len(bindingSets)

	actions := BuildActions(stmt, evaluator)
	if len(actions) > 0 {
		executor := NewExecutor(g, opts)
		overallSuccess := true
		for _, bindings := range bindingSets {
			listResult := executor.Run(actions, bindings)
			result.Actions = append(result.Actions, listResult)
			if !listResult.Success {
				overallSuccess = false
			}
			result.Stats.WriteOperations += len(listResult.ActionResults)
		}
		if !overallSuccess && !opts.ContinueOnFailure {
			result.Error = fmt.Errorf("execution: one or more action lists failed")
			result.Success = false
			return finish()
		}
	}

	if stmt.Return != nil {
		projector := NewProjector(g)
		result.Query = projector.Project(stmt.Return, bindingSets)
	}

	result.Success = true
	return finish()
}

// matchStatement runs the matcher over every pattern in every MATCH
// clause's pattern list and forms their Cartesian product, merging each
// combination's bindings. A statement with no MATCH clause at all (a
// bare CREATE) produces exactly one empty binding set, so downstream
// CREATE/SET/DELETE still runs once.
func matchStatement(g *graph.Graph, opts QueryOptions, stmt *Statement) ([]*BindingContext, error) {
	if stmt.Match == nil || len(stmt.Match.Patterns) == 0 {
		return []*BindingContext{NewBindingContext()}, nil
	}

	matcher := NewMatcher(g, opts)
	root := NewBindingContext()

	sets := []*BindingContext{root}
	for _, pattern := range stmt.Match.Patterns {
		var next []*BindingContext
		for _, partial := range sets {
			matches := matcher.Match(pattern, partial, nil)
			for _, pm := range matches {
				merged, ok := mergeBindings(partial, pm.Bindings)
				if !ok {
					continue
				}
				next = append(next, merged)
			}
		}
		sets = next
		if len(sets) == 0 {
			break
		}
	}

	return sets, nil
}

// mergeBindings combines a and b's flattened bindings, requiring any
// variable name shared between them to resolve to the same entity — the
// Cartesian-product counterpart of the single-pattern repeated-variable
// rule matcher.go enforces within one pattern.
func mergeBindings(a, b *BindingContext) (*BindingContext, bool) {
	merged := a.Clone()
	for _, name := range b.Names() {
		bv, _ := b.Get(name)
		if existing, ok := merged.Get(name); ok {
			if existing != bv {
				return nil, false
			}
			continue
		}
		merged.Set(name, bv)
	}
	return merged, true
}

// filterByWhere keeps only the binding sets for which clause's expression
// evaluates truthy, per spec.md §4.5's WHERE semantics (undefined/null
// are never truthy).
func filterByWhere(ev *Evaluator, clause *WhereClause, sets []*BindingContext) []*BindingContext {
	var kept []*BindingContext
	for _, bindings := range sets {
		if Truthy(ev.Evaluate(clause.Expression, bindings)) {
			kept = append(kept, bindings)
		}
	}
	return kept
}
