package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/quillgraph/pkg/graph"
)

func newBoundEvaluator(t *testing.T) (*Evaluator, *BindingContext) {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddNode("n1", "Person", map[string]any{"age": 30.0, "name": "Ada", "active": true}))
	bindings := NewBindingContext()
	bindings.Set("n", Binding{Kind: EntityNode, NodeID: "n1"})
	return NewEvaluator(g, DefaultQueryOptions()), bindings
}

func TestEvaluatePropertyAccess(t *testing.T) {
	ev, bindings := newBoundEvaluator(t)
	v := ev.Evaluate(&PropertyExpr{Object: "n", Name: "age"}, bindings)
	assert.Equal(t, 30.0, v)
}

func TestEvaluateMissingPropertyIsUndefined(t *testing.T) {
	ev, bindings := newBoundEvaluator(t)
	v := ev.Evaluate(&PropertyExpr{Object: "n", Name: "missing"}, bindings)
	assert.True(t, isUndefined(v))
}

func TestEvaluateComparisonWithUndefinedIsFalse(t *testing.T) {
	ev, bindings := newBoundEvaluator(t)
	expr := &ComparisonExpr{
		Left:  &PropertyExpr{Object: "n", Name: "missing"},
		Op:    OpEquals,
		Right: &LiteralExpr{Literal: Literal{Value: 1.0, DataType: LiteralNumber}},
	}
	assert.False(t, Truthy(ev.Evaluate(expr, bindings)))
}

func TestEvaluateIsNullAndIsNotNull(t *testing.T) {
	ev, bindings := newBoundEvaluator(t)
	isNull := &ComparisonExpr{Left: &PropertyExpr{Object: "n", Name: "missing"}, Op: OpIsNull}
	assert.Equal(t, true, ev.Evaluate(isNull, bindings))

	isNotNull := &ComparisonExpr{Left: &PropertyExpr{Object: "n", Name: "age"}, Op: OpIsNotNull}
	assert.Equal(t, true, ev.Evaluate(isNotNull, bindings))
}

func TestEvaluateTypeCoercion(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("n1", "Person", map[string]any{"age": "30"}))
	bindings := NewBindingContext()
	bindings.Set("n", Binding{Kind: EntityNode, NodeID: "n1"})

	opts := DefaultQueryOptions()
	opts.EnableTypeCoercion = true
	ev := NewEvaluator(g, opts)

	expr := &ComparisonExpr{
		Left:  &PropertyExpr{Object: "n", Name: "age"},
		Op:    OpGreater,
		Right: &LiteralExpr{Literal: Literal{Value: 18.0, DataType: LiteralNumber}},
	}
	assert.True(t, Truthy(ev.Evaluate(expr, bindings)))

	ev2 := NewEvaluator(g, DefaultQueryOptions())
	assert.False(t, Truthy(ev2.Evaluate(expr, bindings)), "without coercion, string vs number never compares true")
}

func TestEvaluateLogicalShortCircuitAndXor(t *testing.T) {
	ev, bindings := newBoundEvaluator(t)
	trueLit := &LiteralExpr{Literal: Literal{Value: true, DataType: LiteralBoolean}}
	falseLit := &LiteralExpr{Literal: Literal{Value: false, DataType: LiteralBoolean}}

	and := &LogicalExpr{Op: OpAnd, Operands: []Expression{falseLit, trueLit}}
	assert.Equal(t, false, ev.Evaluate(and, bindings))

	xor := &LogicalExpr{Op: OpXor, Operands: []Expression{trueLit, trueLit}}
	assert.Equal(t, false, ev.Evaluate(xor, bindings))

	not := &LogicalExpr{Op: OpNot, Operands: []Expression{falseLit}}
	assert.Equal(t, true, ev.Evaluate(not, bindings))
}

func TestEvaluateExistsSubPattern(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("alice", "Person", nil))
	require.NoError(t, g.AddNode("acme", "Company", nil))
	require.NoError(t, g.AddEdge("alice", "acme", "WORKS_AT", nil))

	bindings := NewBindingContext()
	bindings.Set("n", Binding{Kind: EntityNode, NodeID: "alice"})
	ev := NewEvaluator(g, DefaultQueryOptions())

	pattern := PathPattern{
		Start:    NodePattern{Variable: "n"},
		Segments: []pathSegment{{Relationship: RelationshipPattern{Type: "WORKS_AT", Direction: DirOut}, Node: NodePattern{Variable: "c", Labels: []string{"Company"}}}},
	}
	exists := &ExistsExpr{Positive: true, Pattern: pattern}
	assert.Equal(t, true, ev.Evaluate(exists, bindings))

	notExists := &ExistsExpr{Positive: false, Pattern: pattern}
	assert.Equal(t, false, ev.Evaluate(notExists, bindings))
}

func TestEvaluateExistsSubPatternConstrainsEndVariableFromSeed(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("alice", "Person", nil))
	require.NoError(t, g.AddNode("approved", "Thing", nil))
	require.NoError(t, g.AddNode("notApproved", "Thing", nil))
	require.NoError(t, g.AddEdge("alice", "approved", "APPROVED", nil))

	ev := NewEvaluator(g, DefaultQueryOptions())
	pattern := PathPattern{
		Start:    NodePattern{Labels: []string{"Person"}},
		Segments: []pathSegment{{Relationship: RelationshipPattern{Type: "APPROVED", Direction: DirOut}, Node: NodePattern{Variable: "t"}}},
	}

	approvedBindings := NewBindingContext()
	approvedBindings.Set("t", Binding{Kind: EntityNode, NodeID: "approved"})
	assert.Equal(t, true, ev.Evaluate(&ExistsExpr{Positive: true, Pattern: pattern}, approvedBindings))

	notApprovedBindings := NewBindingContext()
	notApprovedBindings.Set("t", Binding{Kind: EntityNode, NodeID: "notApproved"})
	assert.Equal(t, false, ev.Evaluate(&ExistsExpr{Positive: true, Pattern: pattern}, notApprovedBindings),
		"t is bound to notApproved by the outer MATCH; EXISTS must check that specific node, not any Person's approval")
}

func TestEvalContainsAndStringOperators(t *testing.T) {
	assert.True(t, evalContains([]any{"a", "b", "c"}, "b"))
	assert.False(t, evalContains([]any{"a", "b", "c"}, "z"))
	assert.True(t, evalContains("hello world", "world"))
	assert.True(t, evalIn("b", []any{"a", "b", "c"}))
	assert.False(t, evalIn("z", []any{"a", "b", "c"}))
}
