package cypher

import (
	"fmt"

	"github.com/orneryd/quillgraph/pkg/graph"
)

// BuildActions converts a statement's CREATE/SET/DELETE clauses into the
// ordered action list spec.md §4.6 describes. The order is always CREATE,
// then SET, then DELETE, whatever order the clauses appear in the
// statement text.
func BuildActions(stmt *Statement, evaluator *Evaluator) []Action {
	var actions []Action

	if stmt.Create != nil {
		for _, item := range stmt.Create.Items {
			switch {
			case item.Node != nil:
				label := ""
				if len(item.Node.Labels) > 0 {
					label = item.Node.Labels[0]
				}
				actions = append(actions, &CreateNodeAction{
					Variable:   item.Node.Variable,
					Label:      label,
					Properties: item.Node.Properties,
				})
			case item.Relationship != nil:
				actions = append(actions, &CreateRelationshipAction{
					FromVar:    item.Relationship.FromVar,
					ToVar:      item.Relationship.ToVar,
					Type:       item.Relationship.Relationship.Type,
					Properties: item.Relationship.Relationship.Properties,
					Variable:   item.Relationship.Relationship.Variable,
				})
			}
		}
	}

	if stmt.Set != nil {
		for _, item := range stmt.Set.Settings {
			actions = append(actions, &SetPropertyAction{
				Target:    item.Target,
				Property:  item.Property,
				Value:     item.Value,
				evaluator: evaluator,
			})
		}
	}

	if stmt.Delete != nil {
		actions = append(actions, &DeleteAction{
			Variables: stmt.Delete.Variables,
			Detach:    stmt.Delete.Detach,
		})
	}

	return actions
}

// ActionListResult is the roll-up of running one ordered action list
// against one binding set.
type ActionListResult struct {
	Success       bool
	ActionResults []*ActionResult
	RolledBack    bool
	FailedIndex   int // -1 if every action succeeded
}

// Executor runs an action list under QueryOptions's validate/rollback/
// continue semantics (spec.md §4.6.3).
type Executor struct {
	Graph   *graph.Graph
	Options QueryOptions
}

// NewExecutor returns an executor bound to g and opts.
func NewExecutor(g *graph.Graph, opts QueryOptions) *Executor {
	return &Executor{Graph: g, Options: opts}
}

// Run executes actions in order against bindings.
//
// If ValidateBeforeExecute is set, every action is validated (in order)
// before any of them executes; the first validation failure aborts with
// no graph mutation at all.
//
// On an execution failure, RollbackOnFailure undoes the actions that
// succeeded, in reverse order. ContinueOnFailure keeps running the
// remaining actions past a failure instead of stopping (rollback and
// continue-on-failure are independent: a host can keep partial effects
// while still running what remains, or run everything and still roll
// every successful action back once the list has finished).
func (ex *Executor) Run(actions []Action, bindings *BindingContext) *ActionListResult {
	result := &ActionListResult{Success: true, FailedIndex: -1}

	if ex.Options.ValidateBeforeExecute {
		// Validate against a scratch child context in which each earlier
		// CREATE's variable is already marked bound, so a later action can
		// refer to it and a repeated CREATE variable fails here.
		scratch := bindings.Child()
		for i, a := range actions {
			if err := a.Validate(ex.Graph, scratch); err != nil {
				result.Success = false
				result.FailedIndex = i
				result.ActionResults = append(result.ActionResults, &ActionResult{Success: false, Error: fmt.Errorf("action %d: %w", i, err)})
				return result
			}
			switch c := a.(type) {
			case *CreateNodeAction:
				if c.Variable != "" {
					scratch.Set(c.Variable, Binding{Kind: EntityNode})
				}
			case *CreateRelationshipAction:
				if c.Variable != "" {
					scratch.Set(c.Variable, Binding{Kind: EntityEdge})
				}
			}
		}
	}

	var executed []Action
	for i, a := range actions {
		r, err := a.Execute(ex.Graph, bindings)
		result.ActionResults = append(result.ActionResults, r)

		if err != nil {
			result.Success = false
			result.FailedIndex = i

			if ex.Options.ContinueOnFailure {
				continue
			}
			if ex.Options.RollbackOnFailure {
				rollbackActions(executed, ex.Graph, bindings)
				result.RolledBack = true
			}
			return result
		}
		executed = append(executed, a)
	}

	if !result.Success && ex.Options.RollbackOnFailure {
		rollbackActions(executed, ex.Graph, bindings)
		result.RolledBack = true
	}
	return result
}

// rollbackActions undoes actions in reverse execution order.
func rollbackActions(actions []Action, g *graph.Graph, bindings *BindingContext) {
	for i := len(actions) - 1; i >= 0; i-- {
		_ = actions[i].Rollback(g, bindings)
	}
}
