package cypher

import (
	"fmt"
	"strings"

	"github.com/orneryd/quillgraph/pkg/graph"
)

// EdgeRef identifies one matched edge by its natural key, so a PathMatch
// can be replayed against the graph without holding a pointer into it.
type EdgeRef struct {
	Source string
	Target string
	Label  string
}

// PathMatch is one concrete (nodes, edges) path satisfying a PathPattern,
// together with the BindingContext it produced.
type PathMatch struct {
	NodeIDs  []string
	Edges    []EdgeRef
	Bindings *BindingContext
}

// Matcher enumerates graph paths satisfying a PathPattern (C4).
type Matcher struct {
	Graph   *graph.Graph
	Options QueryOptions
}

// NewMatcher returns a matcher bound to g and opts.
func NewMatcher(g *graph.Graph, opts QueryOptions) *Matcher {
	return &Matcher{Graph: g, Options: opts}
}

// walkState threads the in-progress path through the recursive expansion.
type walkState struct {
	nodeIDs   []string
	edges     []EdgeRef
	edgeSeen  map[EdgeRef]bool
	variables map[string]Binding
}

// Match returns every path satisfying pattern. seed supplies bindings
// already fixed by the caller (e.g. an outer MATCH's bindings, when
// Match is used to evaluate an EXISTS sub-pattern); its bound variables
// constrain the corresponding pattern variables instead of being
// re-enumerated. If filter is non-nil, a candidate's bindings are passed
// to it and only passing candidates are kept. engine.go always passes a
// nil filter and applies WHERE once after forming the Cartesian product,
// for single- and multi-pattern MATCH alike.
func (m *Matcher) Match(pattern PathPattern, seed *BindingContext, filter func(*BindingContext) bool) []*PathMatch {
	var results []*PathMatch
	seenSignatures := map[string]bool{}

	anchors := m.anchorNodes(pattern.Start, seed)
	for _, anchorID := range anchors {
		state := &walkState{
			nodeIDs:   []string{anchorID},
			edgeSeen:  map[EdgeRef]bool{},
			variables: map[string]Binding{},
		}
		if pattern.Start.Variable != "" {
			if !m.bindVariable(state, seed, pattern.Start.Variable, Binding{Kind: EntityNode, NodeID: anchorID}) {
				continue
			}
		}

		m.expand(pattern.Segments, 0, state, seed, func(final *walkState) {
			bindings := seed.Child()
			for name, b := range final.variables {
				bindings.Set(name, b)
			}

			sig := signature(final)
			if seenSignatures[sig] {
				return
			}

			if filter != nil && !filter(bindings) {
				return
			}

			seenSignatures[sig] = true
			results = append(results, &PathMatch{
				NodeIDs:  append([]string(nil), final.nodeIDs...),
				Edges:    append([]EdgeRef(nil), final.edges...),
				Bindings: bindings,
			})
		})
	}

	return results
}

func signature(s *walkState) string {
	var sb strings.Builder
	for _, n := range s.nodeIDs {
		sb.WriteString(n)
		sb.WriteByte('|')
	}
	for _, e := range s.edges {
		fmt.Fprintf(&sb, "%s>%s:%s|", e.Source, e.Target, e.Label)
	}
	return sb.String()
}

// bindVariable enforces spec.md §4.4's repeated-variable rule: if name is
// already bound earlier in this same pattern, the new occurrence must
// resolve to the same entity. A name already bound in seed (fixed by an
// outer MATCH, e.g. when this Match call is evaluating an EXISTS
// sub-pattern) is likewise a constraint rather than a free variable: the
// new occurrence must resolve to that same entity too, even when the
// variable sits at a non-start position in the pattern.
func (m *Matcher) bindVariable(state *walkState, seed *BindingContext, name string, b Binding) bool {
	if existing, ok := state.variables[name]; ok {
		return existing == b
	}
	if seed != nil {
		if existing, ok := seed.Get(name); ok {
			return existing == b
		}
	}
	state.variables[name] = b
	return true
}

// anchorNodes returns the node ids a pattern's start node may bind to. If
// the start variable is already bound in seed, only that one node (if it
// still matches the pattern) is considered.
func (m *Matcher) anchorNodes(np NodePattern, seed *BindingContext) []string {
	if np.Variable != "" {
		if b, ok := seed.Get(np.Variable); ok && b.Kind == EntityNode {
			if n, ok := m.Graph.GetNode(b.NodeID); ok && m.nodeMatches(n, np) {
				return []string{b.NodeID}
			}
			return nil
		}
	}

	var ids []string
	for _, n := range m.Graph.GetAllNodes() {
		if m.nodeMatches(n, np) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (m *Matcher) nodeMatches(n *graph.Node, np NodePattern) bool {
	if len(np.Labels) > 0 {
		if !strings.EqualFold(n.Label, np.Labels[0]) {
			return false
		}
	}
	return m.propsMatch(n.Data, np.Properties)
}

func (m *Matcher) relMatches(e *graph.Edge, rp RelationshipPattern) bool {
	if rp.Type != "" && e.Label != rp.Type {
		return false
	}
	return m.propsMatch(e.Data, rp.Properties)
}

func (m *Matcher) propsMatch(data map[string]any, props map[string]Literal) bool {
	for key, lit := range props {
		actual, ok := data[key]
		if !ok {
			return false
		}
		if !valuesEqual(actual, lit.Value, m.Options.EnableTypeCoercion) {
			return false
		}
	}
	return true
}

// candidateEdges returns the distinct edges incident to nodeID consistent
// with dir, dropping any edge listed more than once. A self-loop is
// listed once under DirAny.
func (m *Matcher) candidateEdges(nodeID string, dir Direction) []*graph.Edge {
	var gdir graph.Direction
	switch dir {
	case DirOut:
		gdir = graph.DirOut
	case DirIn:
		gdir = graph.DirIn
	default:
		gdir = graph.DirAny
	}

	edges := m.Graph.GetEdgesForNode(nodeID, gdir)
	seen := map[EdgeRef]bool{}
	out := edges[:0]
	for _, e := range edges {
		ref := EdgeRef{e.Source, e.Target, e.Label}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, e)
	}
	return out
}

// otherEnd returns the endpoint of e that is not nodeID (for a self-loop,
// that is nodeID itself).
func otherEnd(e *graph.Edge, nodeID string) string {
	if e.Source == nodeID {
		return e.Target
	}
	return e.Source
}

// expand walks pattern segments from index i, invoking emit once per
// complete path found from the current frontier in state.
func (m *Matcher) expand(segments []pathSegment, i int, state *walkState, seed *BindingContext, emit func(*walkState)) {
	if i >= len(segments) {
		emit(state)
		return
	}

	seg := segments[i]
	frontier := state.nodeIDs[len(state.nodeIDs)-1]

	minHops, maxHops := 1, 1
	if seg.Relationship.MinHops != nil {
		minHops = *seg.Relationship.MinHops
	}
	if seg.Relationship.MaxHops != nil {
		maxHops = *seg.Relationship.MaxHops
	}

	edgesBefore := len(state.edges)
	m.expandHops(segments, i, frontier, 0, minHops, maxHops, edgesBefore, state, seed, emit)
}

// expandHops performs the bounded depth-first expansion a variable-length
// relationship needs, enforcing the edge-simple-path constraint (no edge reused
// within a single match) via state.edgeSeen. edgesBefore is the length
// of state.edges when this segment began, so a zero-hop match (minHops
// == 0) never mistakes an edge from an earlier segment for this one's.
func (m *Matcher) expandHops(segments []pathSegment, segIdx int, frontier string, depth, minHops, maxHops, edgesBefore int, state *walkState, seed *BindingContext, emit func(*walkState)) {
	seg := segments[segIdx]

	if depth >= minHops {
		m.tryBindAndContinue(segments, segIdx, frontier, edgesBefore, state, seed, emit)
	}

	if depth >= maxHops {
		return
	}

	for _, e := range m.candidateEdges(frontier, seg.Relationship.Direction) {
		ref := EdgeRef{e.Source, e.Target, e.Label}
		if state.edgeSeen[ref] {
			continue
		}
		if !m.relMatches(e, seg.Relationship) {
			continue
		}

		next := otherEnd(e, frontier)
		state.edgeSeen[ref] = true
		state.edges = append(state.edges, ref)
		state.nodeIDs = append(state.nodeIDs, next)

		m.expandHops(segments, segIdx, next, depth+1, minHops, maxHops, edgesBefore, state, seed, emit)

		state.nodeIDs = state.nodeIDs[:len(state.nodeIDs)-1]
		state.edges = state.edges[:len(state.edges)-1]
		delete(state.edgeSeen, ref)
	}
}

// tryBindAndContinue checks the relationship/node variables can bind
// consistently at this depth and, if so, continues to the next segment.
func (m *Matcher) tryBindAndContinue(segments []pathSegment, segIdx int, frontier string, edgesBefore int, state *walkState, seed *BindingContext, emit func(*walkState)) bool {
	seg := segments[segIdx]

	n, ok := m.Graph.GetNode(frontier)
	if !ok || !m.nodeMatches(n, seg.Node) {
		return false
	}

	savedVars := map[string]Binding{}
	hadVar := map[string]bool{}
	bound := []string{}
	ok = true
	if seg.Relationship.Variable != "" && len(state.edges) > edgesBefore {
		last := state.edges[len(state.edges)-1]
		prev, had := state.variables[seg.Relationship.Variable]
		savedVars[seg.Relationship.Variable] = prev
		hadVar[seg.Relationship.Variable] = had
		if m.bindVariable(state, seed, seg.Relationship.Variable, Binding{Kind: EntityEdge, EdgeSource: last.Source, EdgeTarget: last.Target, EdgeLabel: last.Label}) {
			bound = append(bound, seg.Relationship.Variable)
		} else {
			ok = false
		}
	}
	if ok && seg.Node.Variable != "" {
		prev, had := state.variables[seg.Node.Variable]
		savedVars[seg.Node.Variable] = prev
		hadVar[seg.Node.Variable] = had
		if m.bindVariable(state, seed, seg.Node.Variable, Binding{Kind: EntityNode, NodeID: frontier}) {
			bound = append(bound, seg.Node.Variable)
		} else {
			ok = false
		}
	}

	if ok {
		m.expand(segments, segIdx+1, state, seed, emit)
	}

	for _, name := range bound {
		if hadVar[name] {
			state.variables[name] = savedVars[name]
		} else {
			delete(state.variables, name)
		}
	}
	return ok
}
