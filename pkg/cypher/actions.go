package cypher

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/orneryd/quillgraph/pkg/graph"
)

// defaultNodeLabel is used by CreateNode when a CREATE pattern specifies
// no label at all.
const defaultNodeLabel = "Node"

// ActionResult records the outcome of one executed action, collected by
// the Executor into a combined roll-up (spec.md §4.6.3).
type ActionResult struct {
	Success       bool
	Error         error
	AffectedNodes []string
	AffectedEdges []EdgeRef
}

// Action is the tagged-union contract spec.md §4.6 describes: a
// validate/execute/rollback triple. Each concrete action keeps whatever
// undo payload it needs as its own field, captured during Execute — no
// global graph snapshot is taken, per spec.md §9.
type Action interface {
	// Validate reports whether the action can run given the current
	// bindings, without mutating the graph.
	Validate(g *graph.Graph, bindings *BindingContext) error
	// Execute performs the mutation, binding/rebinding variables as
	// spec.md §4.6 describes, and records its own undo payload.
	Execute(g *graph.Graph, bindings *BindingContext) (*ActionResult, error)
	// Rollback undoes a previously successful Execute.
	Rollback(g *graph.Graph, bindings *BindingContext) error
}

// --- CreateNode ---

// CreateNodeAction creates a fresh node and binds it to Variable.
type CreateNodeAction struct {
	Variable   string
	Label      string
	Properties map[string]Literal

	createdID string // undo payload
}

func (a *CreateNodeAction) Validate(_ *graph.Graph, bindings *BindingContext) error {
	if a.Variable != "" {
		if _, ok := bindings.Get(a.Variable); ok {
			return fmt.Errorf("validation: variable %q is already bound", a.Variable)
		}
	}
	return nil
}

func (a *CreateNodeAction) Execute(g *graph.Graph, bindings *BindingContext) (*ActionResult, error) {
	// Re-check here, not just in Validate: with ValidateBeforeExecute off,
	// Validate never runs, so for two CREATE items sharing a variable
	// (e.g. "CREATE (p), (p)") Execute is what observes the first
	// action's binding effect.
	if a.Variable != "" {
		if _, ok := bindings.Get(a.Variable); ok {
			err := fmt.Errorf("execution: variable %q is already bound", a.Variable)
			return &ActionResult{Success: false, Error: err}, err
		}
	}

	label := a.Label
	if label == "" {
		label = defaultNodeLabel
	}

	id := uuid.NewString()
	data := literalMapToData(a.Properties)
	if err := g.AddNode(id, label, data); err != nil {
		return &ActionResult{Success: false, Error: err}, err
	}

	a.createdID = id
	if a.Variable != "" {
		bindings.Set(a.Variable, Binding{Kind: EntityNode, NodeID: id})
	}
	return &ActionResult{Success: true, AffectedNodes: []string{id}}, nil
}

func (a *CreateNodeAction) Rollback(g *graph.Graph, _ *BindingContext) error {
	if a.createdID == "" {
		return nil
	}
	g.RemoveNode(a.createdID)
	return nil
}

// --- CreateRelationship ---

// CreateRelationshipAction creates an edge between two already-bound
// node variables.
type CreateRelationshipAction struct {
	FromVar    string
	ToVar      string
	Type       string
	Properties map[string]Literal
	Variable   string

	created   bool // undo payload
	fromID    string
	toID      string
}

func (a *CreateRelationshipAction) Validate(_ *graph.Graph, bindings *BindingContext) error {
	from, ok := bindings.Get(a.FromVar)
	if !ok || from.Kind != EntityNode {
		return fmt.Errorf("validation: %q is not bound to a node", a.FromVar)
	}
	to, ok := bindings.Get(a.ToVar)
	if !ok || to.Kind != EntityNode {
		return fmt.Errorf("validation: %q is not bound to a node", a.ToVar)
	}
	if a.Variable != "" {
		if _, ok := bindings.Get(a.Variable); ok {
			return fmt.Errorf("validation: variable %q is already bound", a.Variable)
		}
	}
	if a.Type == "" {
		return errors.New("validation: relationship type must not be empty")
	}
	return nil
}

func (a *CreateRelationshipAction) Execute(g *graph.Graph, bindings *BindingContext) (*ActionResult, error) {
	// See CreateNodeAction.Execute: Validate does not run when
	// ValidateBeforeExecute is off, so re-check here.
	if a.Variable != "" {
		if _, ok := bindings.Get(a.Variable); ok {
			err := fmt.Errorf("execution: variable %q is already bound", a.Variable)
			return &ActionResult{Success: false, Error: err}, err
		}
	}

	from, _ := bindings.Get(a.FromVar)
	to, _ := bindings.Get(a.ToVar)

	data := literalMapToData(a.Properties)
	if err := g.AddEdge(from.NodeID, to.NodeID, a.Type, data); err != nil {
		return &ActionResult{Success: false, Error: err}, err
	}

	a.created = true
	a.fromID = from.NodeID
	a.toID = to.NodeID

	if a.Variable != "" {
		bindings.Set(a.Variable, Binding{Kind: EntityEdge, EdgeSource: from.NodeID, EdgeTarget: to.NodeID, EdgeLabel: a.Type})
	}
	return &ActionResult{Success: true, AffectedEdges: []EdgeRef{{Source: from.NodeID, Target: to.NodeID, Label: a.Type}}}, nil
}

func (a *CreateRelationshipAction) Rollback(g *graph.Graph, _ *BindingContext) error {
	if !a.created {
		return nil
	}
	g.RemoveEdge(a.fromID, a.toID, a.Type)
	return nil
}

// --- SetProperty ---

// SetPropertyAction sets one property on a bound node or edge.
type SetPropertyAction struct {
	Target   string
	Property string
	Value    Expression

	evaluator *Evaluator

	applied    bool // undo payload
	prevData   map[string]any
	targetKind EntityKind
	nodeID     string
	edgeKey    EdgeRef
}

func (a *SetPropertyAction) Validate(_ *graph.Graph, bindings *BindingContext) error {
	b, ok := bindings.Get(a.Target)
	if !ok || (b.Kind != EntityNode && b.Kind != EntityEdge) {
		return fmt.Errorf("validation: %q is not bound to a node or edge", a.Target)
	}
	if a.Property == "" {
		return errors.New("validation: property name must not be empty")
	}
	return nil
}

func (a *SetPropertyAction) Execute(g *graph.Graph, bindings *BindingContext) (*ActionResult, error) {
	b, _ := bindings.Get(a.Target)
	value := a.evaluator.Evaluate(a.Value, bindings)
	if isUndefined(value) {
		value = nil
	}

	switch b.Kind {
	case EntityNode:
		n, ok := g.GetNode(b.NodeID)
		if !ok {
			err := fmt.Errorf("execution: node %q no longer exists", b.NodeID)
			return &ActionResult{Success: false, Error: err}, err
		}
		a.prevData = n.Data
		a.targetKind = EntityNode
		a.nodeID = b.NodeID

		updated := copyMap(n.Data)
		updated[a.Property] = value
		if _, err := g.UpdateNode(b.NodeID, updated); err != nil {
			return &ActionResult{Success: false, Error: err}, err
		}
		a.applied = true
		bindings.Set(a.Target, Binding{Kind: EntityNode, NodeID: b.NodeID})
		return &ActionResult{Success: true, AffectedNodes: []string{b.NodeID}}, nil

	case EntityEdge:
		e, ok := g.GetEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
		if !ok {
			err := fmt.Errorf("execution: edge %s->%s:%s no longer exists", b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
			return &ActionResult{Success: false, Error: err}, err
		}
		a.prevData = e.Data
		a.targetKind = EntityEdge
		a.edgeKey = EdgeRef{b.EdgeSource, b.EdgeTarget, b.EdgeLabel}

		updated := copyMap(e.Data)
		updated[a.Property] = value
		if _, err := g.UpdateEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel, updated); err != nil {
			return &ActionResult{Success: false, Error: err}, err
		}
		a.applied = true
		bindings.Set(a.Target, b)
		return &ActionResult{Success: true, AffectedEdges: []EdgeRef{a.edgeKey}}, nil

	default:
		err := fmt.Errorf("execution: %q is not bound to a node or edge", a.Target)
		return &ActionResult{Success: false, Error: err}, err
	}
}

func (a *SetPropertyAction) Rollback(g *graph.Graph, _ *BindingContext) error {
	if !a.applied {
		return nil
	}
	switch a.targetKind {
	case EntityNode:
		_, err := g.UpdateNode(a.nodeID, a.prevData)
		return err
	case EntityEdge:
		_, err := g.UpdateEdge(a.edgeKey.Source, a.edgeKey.Target, a.edgeKey.Label, a.prevData)
		return err
	}
	return nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- Delete ---

// removedNode captures everything needed to recreate a deleted node and
// its incident edges, for DETACH DELETE rollback.
type removedNode struct {
	id    string
	label string
	data  map[string]any
	edges []*graph.Edge
}

// DeleteAction removes one or more bound variables. Detach strips all
// edges incident to a bound node before removing it; without Detach, a
// node with remaining edges fails validation.
type DeleteAction struct {
	Variables []string
	Detach    bool

	removedNodes []removedNode    // undo payload
	removedEdges []*graph.Edge    // undo payload
}

func (a *DeleteAction) Validate(g *graph.Graph, bindings *BindingContext) error {
	for _, v := range a.Variables {
		b, ok := bindings.Get(v)
		if !ok || (b.Kind != EntityNode && b.Kind != EntityEdge) {
			return fmt.Errorf("validation: %q is not bound to a node or edge", v)
		}
		if b.Kind == EntityNode && !a.Detach {
			if len(g.GetEdgesForNode(b.NodeID, graph.DirAny)) > 0 {
				return fmt.Errorf("validation: node %q has relationships; use DETACH DELETE", v)
			}
		}
	}
	return nil
}

func (a *DeleteAction) Execute(g *graph.Graph, bindings *BindingContext) (*ActionResult, error) {
	result := &ActionResult{Success: true}

	for _, v := range a.Variables {
		b, ok := bindings.Get(v)
		if !ok {
			continue
		}

		switch b.Kind {
		case EntityEdge:
			if e, ok := g.GetEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel); ok {
				a.removedEdges = append(a.removedEdges, e)
			}
			g.RemoveEdge(b.EdgeSource, b.EdgeTarget, b.EdgeLabel)
			result.AffectedEdges = append(result.AffectedEdges, EdgeRef{b.EdgeSource, b.EdgeTarget, b.EdgeLabel})

		case EntityNode:
			n, _ := g.GetNode(b.NodeID)
			incident := g.GetEdgesForNode(b.NodeID, graph.DirAny)
			if !a.Detach && len(incident) > 0 {
				// Re-check here too: under ValidateBeforeExecute=false,
				// Validate never runs, so Execute is the only place this
				// rule can still be enforced.
				err := fmt.Errorf("execution: node %q has relationships; use DETACH DELETE", v)
				result.Success = false
				result.Error = err
				return result, err
			}
			if a.Detach {
				for _, e := range incident {
					g.RemoveEdge(e.Source, e.Target, e.Label)
				}
			}
			rn := removedNode{id: b.NodeID, edges: incident}
			if n != nil {
				rn.label = n.Label
				rn.data = n.Data
			}
			g.RemoveNode(b.NodeID)
			a.removedNodes = append(a.removedNodes, rn)
			result.AffectedNodes = append(result.AffectedNodes, b.NodeID)
		}

		bindings.Set(v, Binding{Kind: EntityNone})
	}

	return result, nil
}

func (a *DeleteAction) Rollback(g *graph.Graph, _ *BindingContext) error {
	for _, rn := range a.removedNodes {
		_ = g.AddNode(rn.id, rn.label, rn.data)
	}
	for _, rn := range a.removedNodes {
		for _, e := range rn.edges {
			_ = g.AddEdge(e.Source, e.Target, e.Label, e.Data)
		}
	}
	for _, e := range a.removedEdges {
		_ = g.AddEdge(e.Source, e.Target, e.Label, e.Data)
	}
	return nil
}

// literalMapToData converts a pattern's literal property map into plain
// graph data, unwrapping each Literal to its raw value.
func literalMapToData(props map[string]Literal) map[string]any {
	out := make(map[string]any, len(props))
	for k, lit := range props {
		out[k] = lit.Value
	}
	return out
}
