package cypher

import (
	"strings"

	"github.com/orneryd/quillgraph/pkg/graph"
)

// Evaluator evaluates Expression trees under a BindingContext. Recursive
// invocation (EXISTS inside a WHERE) reuses the same evaluator — there is
// no separate sub-evaluator spun up for nested patterns. Each EXISTS
// evaluation builds a fresh Matcher over the evaluator's graph and
// options; no matcher instance is shared between calls.
type Evaluator struct {
	Graph   *graph.Graph
	Options QueryOptions
}

// NewEvaluator returns an evaluator bound to g and opts.
func NewEvaluator(g *graph.Graph, opts QueryOptions) *Evaluator {
	return &Evaluator{Graph: g, Options: opts}
}

// Evaluate returns expr's value under bindings. literal/variable/property
// access never fail; comparisons always return a bool.
func (ev *Evaluator) Evaluate(expr Expression, bindings *BindingContext) any {
	switch e := expr.(type) {
	case *LiteralExpr:
		return e.Literal.Value

	case *VariableExpr:
		b, ok := bindings.Get(e.Name)
		if !ok {
			return undefinedValue
		}
		return b

	case *PropertyExpr:
		return ev.propertyValue(e.Object, e.Name, bindings)

	case *ComparisonExpr:
		return ev.evalComparison(e, bindings)

	case *LogicalExpr:
		return ev.evalLogical(e, bindings)

	case *ExistsExpr:
		return ev.evalExists(e, bindings)

	default:
		return undefinedValue
	}
}

// Truthy coerces a value to the Boolean spec.md's short-circuit operators
// and WHERE filtering need: only an actual `true` is truthy; everything
// else — false, undefined, non-boolean values — is not.
func Truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// propertyValue returns the named property of the entity bound to
// object, or undefined if the variable is unbound or the property is
// absent.
func (ev *Evaluator) propertyValue(object, name string, bindings *BindingContext) any {
	b, ok := bindings.Get(object)
	if !ok {
		return undefinedValue
	}

	var data map[string]any
	switch b.Kind {
	case EntityNode:
		n, ok := ev.Graph.GetNode(b.NodeID)
		if !ok {
			return undefinedValue
		}
		data = n.Data
	case EntityEdge:
		e, ok := ev.Graph.GetEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
		if !ok {
			return undefinedValue
		}
		data = e.Data
	default:
		return undefinedValue
	}

	v, ok := data[name]
	if !ok {
		return undefinedValue
	}
	return v
}

func (ev *Evaluator) evalComparison(e *ComparisonExpr, bindings *BindingContext) any {
	left := ev.Evaluate(e.Left, bindings)

	switch e.Op {
	case OpIsNull:
		return isNullish(left)
	case OpIsNotNull:
		return !isNullish(left)
	}

	right := ev.Evaluate(e.Right, bindings)
	coerce := ev.Options.EnableTypeCoercion

	switch e.Op {
	case OpEquals:
		return valuesEqual(left, right, coerce)
	case OpNotEquals:
		if isUndefined(left) || isUndefined(right) {
			return false
		}
		return !valuesEqual(left, right, coerce)
	case OpLess:
		cmp, ok := compareOrdered(left, right, coerce)
		return ok && cmp < 0
	case OpLessEq:
		cmp, ok := compareOrdered(left, right, coerce)
		return ok && cmp <= 0
	case OpGreater:
		cmp, ok := compareOrdered(left, right, coerce)
		return ok && cmp > 0
	case OpGreaterEq:
		cmp, ok := compareOrdered(left, right, coerce)
		return ok && cmp >= 0
	case OpContains:
		return evalContains(left, right)
	case OpStartsWith:
		ls, lok := left.(string)
		rs, rok := right.(string)
		return lok && rok && strings.HasPrefix(ls, rs)
	case OpEndsWith:
		ls, lok := left.(string)
		rs, rok := right.(string)
		return lok && rok && strings.HasSuffix(ls, rs)
	case OpIn:
		return evalIn(left, right)
	default:
		return false
	}
}

func evalContains(left, right any) bool {
	if isUndefined(left) || isUndefined(right) {
		return false
	}
	if items, ok := left.([]any); ok {
		for _, item := range items {
			if valuesEqual(item, right, false) {
				return true
			}
		}
		return false
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	return lok && rok && strings.Contains(ls, rs)
}

func evalIn(left, right any) bool {
	items, ok := right.([]any)
	if !ok || isUndefined(left) {
		return false
	}
	for _, item := range items {
		if valuesEqual(left, item, false) {
			return true
		}
	}
	return false
}

func (ev *Evaluator) evalLogical(e *LogicalExpr, bindings *BindingContext) any {
	switch e.Op {
	case OpAnd:
		for _, operand := range e.Operands {
			if !Truthy(ev.Evaluate(operand, bindings)) {
				return false
			}
		}
		return true

	case OpOr:
		for _, operand := range e.Operands {
			if Truthy(ev.Evaluate(operand, bindings)) {
				return true
			}
		}
		return false

	case OpXor:
		count := 0
		for _, operand := range e.Operands {
			if Truthy(ev.Evaluate(operand, bindings)) {
				count++
			}
		}
		return count%2 == 1

	case OpNot:
		return !Truthy(ev.Evaluate(e.Operands[0], bindings))

	default:
		return false
	}
}

// evalExists runs the matcher over e.Pattern, seeding it with whatever of
// the pattern's variables are already bound, and returns whether at least
// one match was found (inverted when Positive is false).
func (ev *Evaluator) evalExists(e *ExistsExpr, bindings *BindingContext) any {
	matcher := NewMatcher(ev.Graph, ev.Options)
	matches := matcher.Match(e.Pattern, bindings, nil)
	found := len(matches) > 0
	if e.Positive {
		return found
	}
	return !found
}
