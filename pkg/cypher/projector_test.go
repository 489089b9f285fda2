package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/quillgraph/pkg/graph"
)

func TestProjectBareVariableAndProperty(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("n1", "Person", map[string]any{"name": "Ada", "age": 36.0}))
	bindings := NewBindingContext()
	bindings.Set("n", Binding{Kind: EntityNode, NodeID: "n1"})

	clause := &ReturnClause{Items: []ReturnItem{{Variable: "n"}, {Variable: "n", Property: "name"}}}
	data := NewProjector(g).Project(clause, []*BindingContext{bindings})

	require.Equal(t, []string{"n", "n.name"}, data.Columns)
	require.Len(t, data.Rows, 1)
	row := data.Rows[0]
	node, ok := row[0].Value.(*graph.Node)
	require.True(t, ok)
	assert.Equal(t, "n1", node.ID)
	assert.Equal(t, CellNode, row[0].Kind)
	assert.Equal(t, "Ada", row[1].Value)
	assert.Equal(t, CellProperty, row[1].Kind)
}

func TestProjectMissingPropertyIsNull(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("n1", "Person", nil))
	bindings := NewBindingContext()
	bindings.Set("n", Binding{Kind: EntityNode, NodeID: "n1"})

	clause := &ReturnClause{Items: []ReturnItem{{Variable: "n", Property: "missing"}}}
	data := NewProjector(g).Project(clause, []*BindingContext{bindings})

	assert.Nil(t, data.Rows[0][0].Value)
	assert.Equal(t, CellProperty, data.Rows[0][0].Kind)
}

func TestProjectOneRowPerBindingSet(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("n1", "Person", map[string]any{"age": 30.0}))
	require.NoError(t, g.AddNode("n2", "Person", map[string]any{"age": 40.0}))

	b1 := NewBindingContext()
	b1.Set("n", Binding{Kind: EntityNode, NodeID: "n1"})
	b2 := NewBindingContext()
	b2.Set("n", Binding{Kind: EntityNode, NodeID: "n2"})

	clause := &ReturnClause{Items: []ReturnItem{{Variable: "n", Property: "age"}}}
	data := NewProjector(g).Project(clause, []*BindingContext{b1, b2})

	require.Len(t, data.Rows, 2)
	assert.Equal(t, 30.0, data.Rows[0][0].Value)
	assert.Equal(t, 40.0, data.Rows[1][0].Value)
}
