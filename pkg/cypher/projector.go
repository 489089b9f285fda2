package cypher

import "github.com/orneryd/quillgraph/pkg/graph"

// CellKind tags what a Cell's Value holds: a whole node, a whole edge, or
// a scalar property value. This is the coarse tag spec.md §4.7 names
// ('node'|'edge'|'property') — it is not the property's own data type.
type CellKind int

const (
	CellProperty CellKind = iota
	CellNode
	CellEdge
)

// Cell is one projected value: the column it belongs to, its raw value,
// and a coarse kind tag a renderer can use without reflecting on Value.
type Cell struct {
	Column string
	Value  any
	Kind   CellKind
}

// QueryResultData is the tabular projection of a RETURN clause over a set
// of binding contexts: one row per binding set, one column per return
// item, in the order RETURN named them.
type QueryResultData struct {
	Columns []string
	Rows    [][]Cell
}

// Projector turns ReturnClause + binding sets into QueryResultData (C7).
type Projector struct {
	Graph *graph.Graph
}

// NewProjector returns a projector bound to g.
func NewProjector(g *graph.Graph) *Projector {
	return &Projector{Graph: g}
}

// Project builds one row per entry in bindingSets, one column per item in
// clause, in RETURN's declared order. A variable resolving to a missing
// binding, or a missing property, both project as {value: nil, kind:
// CellProperty}, per spec.md §4.7.
func (p *Projector) Project(clause *ReturnClause, bindingSets []*BindingContext) *QueryResultData {
	data := &QueryResultData{}

	for _, item := range clause.Items {
		data.Columns = append(data.Columns, columnName(item))
	}

	for _, bindings := range bindingSets {
		row := make([]Cell, 0, len(clause.Items))
		for _, item := range clause.Items {
			row = append(row, p.projectItem(item, bindings))
		}
		data.Rows = append(data.Rows, row)
	}

	return data
}

func columnName(item ReturnItem) string {
	if item.Property == "" {
		return item.Variable
	}
	return item.Variable + "." + item.Property
}

func (p *Projector) projectItem(item ReturnItem, bindings *BindingContext) Cell {
	col := columnName(item)

	b, ok := bindings.Get(item.Variable)
	if !ok {
		return Cell{Column: col, Value: nil, Kind: CellProperty}
	}

	if item.Property == "" {
		return entityCell(p.Graph, col, b)
	}

	data := entityData(p.Graph, b)
	if data == nil {
		return Cell{Column: col, Value: nil, Kind: CellProperty}
	}
	v, ok := data[item.Property]
	if !ok {
		return Cell{Column: col, Value: nil, Kind: CellProperty}
	}
	return Cell{Column: col, Value: v, Kind: CellProperty}
}

// entityCell resolves a bare-variable RETURN item to the full node or edge
// it currently refers to, tagged node/edge, so a host can render the
// whole entity rather than just a property.
func entityCell(g *graph.Graph, col string, b Binding) Cell {
	switch b.Kind {
	case EntityNode:
		n, ok := g.GetNode(b.NodeID)
		if !ok {
			return Cell{Column: col, Value: nil, Kind: CellProperty}
		}
		return Cell{Column: col, Value: n, Kind: CellNode}
	case EntityEdge:
		e, ok := g.GetEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
		if !ok {
			return Cell{Column: col, Value: nil, Kind: CellProperty}
		}
		return Cell{Column: col, Value: e, Kind: CellEdge}
	default:
		return Cell{Column: col, Value: nil, Kind: CellProperty}
	}
}

func entityData(g *graph.Graph, b Binding) map[string]any {
	switch b.Kind {
	case EntityNode:
		n, ok := g.GetNode(b.NodeID)
		if !ok {
			return nil
		}
		return n.Data
	case EntityEdge:
		e, ok := g.GetEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
		if !ok {
			return nil
		}
		return e.Data
	default:
		return nil
	}
}
