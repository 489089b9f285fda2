package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/quillgraph/pkg/graph"
)

func TestCreateNodeActionBindsVariable(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()
	action := &CreateNodeAction{Variable: "n", Label: "Person", Properties: map[string]Literal{"name": {Value: "Ada"}}}

	require.NoError(t, action.Validate(g, bindings))
	result, err := action.Execute(g, bindings)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.AffectedNodes, 1)

	b, ok := bindings.Get("n")
	require.True(t, ok)
	assert.Equal(t, EntityNode, b.Kind)

	n, ok := g.GetNode(b.NodeID)
	require.True(t, ok)
	assert.Equal(t, "Person", n.Label)
	assert.Equal(t, "Ada", n.Data["name"])
}

func TestCreateNodeActionDefaultsLabel(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()
	action := &CreateNodeAction{Variable: "n"}
	_, err := action.Execute(g, bindings)
	require.NoError(t, err)

	b, _ := bindings.Get("n")
	n, _ := g.GetNode(b.NodeID)
	assert.Equal(t, defaultNodeLabel, n.Label)
}

func TestCreateNodeActionRollbackRemovesNode(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()
	action := &CreateNodeAction{Variable: "n", Label: "Person"}
	_, err := action.Execute(g, bindings)
	require.NoError(t, err)

	require.NoError(t, action.Rollback(g, bindings))
	assert.Equal(t, 0, g.NodeCount())
}

func TestCreateRelationshipActionRequiresBoundEndpoints(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()
	action := &CreateRelationshipAction{FromVar: "a", ToVar: "b", Type: "KNOWS"}
	err := action.Validate(g, bindings)
	assert.Error(t, err)
}

func TestCreateRelationshipActionExecuteAndRollback(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "Person", nil))
	require.NoError(t, g.AddNode("b", "Person", nil))
	bindings := NewBindingContext()
	bindings.Set("a", Binding{Kind: EntityNode, NodeID: "a"})
	bindings.Set("b", Binding{Kind: EntityNode, NodeID: "b"})

	action := &CreateRelationshipAction{FromVar: "a", ToVar: "b", Type: "KNOWS"}
	require.NoError(t, action.Validate(g, bindings))
	result, err := action.Execute(g, bindings)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, g.HasEdge("a", "b", "KNOWS"))

	require.NoError(t, action.Rollback(g, bindings))
	assert.False(t, g.HasEdge("a", "b", "KNOWS"))
}

func TestSetPropertyActionExecuteAndRollback(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "Person", map[string]any{"age": 30.0}))
	bindings := NewBindingContext()
	bindings.Set("a", Binding{Kind: EntityNode, NodeID: "a"})

	ev := NewEvaluator(g, DefaultQueryOptions())
	action := &SetPropertyAction{Target: "a", Property: "age", Value: &LiteralExpr{Literal: Literal{Value: 31.0, DataType: LiteralNumber}}, evaluator: ev}
	require.NoError(t, action.Validate(g, bindings))
	_, err := action.Execute(g, bindings)
	require.NoError(t, err)

	n, _ := g.GetNode("a")
	assert.Equal(t, 31.0, n.Data["age"])

	require.NoError(t, action.Rollback(g, bindings))
	n, _ = g.GetNode("a")
	assert.Equal(t, 30.0, n.Data["age"])
}

func TestDeleteActionRequiresDetachForNodeWithEdges(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "Person", nil))
	require.NoError(t, g.AddNode("b", "Person", nil))
	require.NoError(t, g.AddEdge("a", "b", "KNOWS", nil))
	bindings := NewBindingContext()
	bindings.Set("a", Binding{Kind: EntityNode, NodeID: "a"})

	action := &DeleteAction{Variables: []string{"a"}}
	err := action.Validate(g, bindings)
	assert.Error(t, err)

	action.Detach = true
	assert.NoError(t, action.Validate(g, bindings))
}

func TestDeleteActionDetachRemovesIncidentEdgesAndRollsBack(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "Person", nil))
	require.NoError(t, g.AddNode("b", "Person", nil))
	require.NoError(t, g.AddEdge("a", "b", "KNOWS", nil))
	bindings := NewBindingContext()
	bindings.Set("a", Binding{Kind: EntityNode, NodeID: "a"})

	action := &DeleteAction{Variables: []string{"a"}, Detach: true}
	result, err := action.Execute(g, bindings)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, g.HasNode("a"))
	assert.False(t, g.HasEdge("a", "b", "KNOWS"))

	require.NoError(t, action.Rollback(g, bindings))
	assert.True(t, g.HasNode("a"))
	assert.True(t, g.HasEdge("a", "b", "KNOWS"))
}

func TestCreateNodeActionExecuteRejectsVariableBoundByEarlierAction(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()
	first := &CreateNodeAction{Variable: "p", Label: "Person"}
	second := &CreateNodeAction{Variable: "p", Label: "Person"}

	opts := DefaultQueryOptions()
	opts.ValidateBeforeExecute = false
	executor := NewExecutor(g, opts)

	result := executor.Run([]Action{first, second}, bindings)
	assert.False(t, result.Success, "CREATE (p), (p) must fail once p is already bound")
	assert.Equal(t, 0, g.NodeCount(), "the rolled-back first node must not remain")
}

func TestDeleteActionExecuteEnforcesDetachEvenWithoutValidate(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("a", "Person", nil))
	require.NoError(t, g.AddNode("b", "Person", nil))
	require.NoError(t, g.AddEdge("a", "b", "KNOWS", nil))
	bindings := NewBindingContext()
	bindings.Set("a", Binding{Kind: EntityNode, NodeID: "a"})

	action := &DeleteAction{Variables: []string{"a"}}
	_, err := action.Execute(g, bindings)
	assert.Error(t, err)
	assert.True(t, g.HasNode("a"), "a plain DELETE must not silently detach a node with edges")
}

func TestExecutorRollsBackEarlierActionsOnFailure(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()

	create := &CreateNodeAction{Variable: "n", Label: "Person"}
	failingSet := &SetPropertyAction{Target: "missing", Property: "x", Value: &LiteralExpr{Literal: Literal{Value: 1.0}}, evaluator: NewEvaluator(g, DefaultQueryOptions())}

	opts := DefaultQueryOptions()
	opts.ValidateBeforeExecute = true
	opts.RollbackOnFailure = true
	executor := NewExecutor(g, opts)

	result := executor.Run([]Action{create, failingSet}, bindings)
	assert.False(t, result.Success)
	assert.Equal(t, 0, g.NodeCount(), "validation runs before execution, so nothing should have been created")
}

func TestExecutorRollbackAfterPartialExecution(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()

	create := &CreateNodeAction{Variable: "n", Label: "Person"}
	failingRel := &CreateRelationshipAction{FromVar: "n", ToVar: "ghost", Type: "KNOWS"}

	opts := DefaultQueryOptions()
	opts.ValidateBeforeExecute = false
	opts.RollbackOnFailure = true
	executor := NewExecutor(g, opts)

	result := executor.Run([]Action{create, failingRel}, bindings)
	assert.False(t, result.Success)
	assert.True(t, result.RolledBack)
	assert.Equal(t, 0, g.NodeCount(), "the created node should have been rolled back")
}

func TestExecutorContinueOnFailureRunsRemainingActions(t *testing.T) {
	g := graph.New()
	bindings := NewBindingContext()

	failingRel := &CreateRelationshipAction{FromVar: "missing1", ToVar: "missing2", Type: "KNOWS"}
	create := &CreateNodeAction{Variable: "n", Label: "Person"}

	opts := DefaultQueryOptions()
	opts.ValidateBeforeExecute = false
	opts.RollbackOnFailure = false
	opts.ContinueOnFailure = true
	executor := NewExecutor(g, opts)

	result := executor.Run([]Action{failingRel, create}, bindings)
	assert.False(t, result.Success)
	assert.Equal(t, 1, g.NodeCount(), "the action after the failure should still have run")
}
