// Package graph provides an in-memory, directed, labeled property graph.
//
// A Graph holds Node and Edge records keyed by opaque string identifiers.
// Every node carries a single label and an arbitrary property map; every
// ordered (source, target) pair may carry at most one edge per distinct
// edge label. Each node keeps its own outgoing and incoming adjacency
// indexes, used for edge-existence checks and removal. GetEdgesForNode
// and GetNeighbors scan the insertion-ordered edge list, so their cost
// grows with the total number of edges, not with the node's degree.
//
// All mutating and reading methods are safe for concurrent use: a single
// RWMutex guards the graph's maps, the same way storage.MemoryEngine guards
// its own. The graph itself does not serialize statement execution — that
// is the caller's responsibility (see pkg/cypher's concurrency notes).
package graph

import (
	"errors"
	"sync"
)

// Sentinel errors returned by Graph methods. Callers should compare with
// errors.Is rather than matching on error text.
var (
	ErrNotFound      = errors.New("graph: not found")
	ErrAlreadyExists = errors.New("graph: already exists")
	ErrInvalidID     = errors.New("graph: invalid id")
	ErrInvalidEdge   = errors.New("graph: invalid edge: source or target node not found")
	ErrEmptyLabel    = errors.New("graph: label must not be empty")
)

// Node is a graph vertex: an opaque id, a single label, and a property map.
type Node struct {
	ID    string
	Label string
	Data  map[string]any
}

// Edge is a directed, labeled relationship between two existing nodes.
// The same ordered (Source, Target) pair may carry several edges as long
// as each has a distinct Label. Self-loops (Source == Target) are allowed.
type Edge struct {
	Source string
	Target string
	Label  string
	Data   map[string]any
}

// Direction selects which adjacency side a traversal should consider.
type Direction int

const (
	// DirOut considers only edges where the node is the source.
	DirOut Direction = iota
	// DirIn considers only edges where the node is the target.
	DirIn
	// DirAny considers both outgoing and incoming edges.
	DirAny
)

// edgeKey identifies one edge record.
type edgeKey struct {
	source string
	target string
	label  string
}

// Graph is a thread-safe, directed, labeled property graph.
//
// Use New to construct one. The zero value is not usable.
type Graph struct {
	mu sync.RWMutex

	nodes    map[string]*Node
	nodeKeys []string // insertion order, for deterministic iteration

	edges    map[edgeKey]*Edge
	edgeKeys []edgeKey

	out map[string]map[edgeKey]struct{}
	in  map[string]map[edgeKey]struct{}
}

// New returns an empty graph ready for use.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
		out:   make(map[string]map[edgeKey]struct{}),
		in:    make(map[string]map[edgeKey]struct{}),
	}
}

func copyData(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AddNode creates a node with the given id, label, and property data.
// It fails with ErrInvalidID if id is empty, ErrEmptyLabel if label is
// empty, and ErrAlreadyExists if a node with that id already exists.
func (g *Graph) AddNode(id, label string, data map[string]any) error {
	if id == "" {
		return ErrInvalidID
	}
	if label == "" {
		return ErrEmptyLabel
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return ErrAlreadyExists
	}

	g.nodes[id] = &Node{ID: id, Label: label, Data: copyData(data)}
	g.nodeKeys = append(g.nodeKeys, id)
	return nil
}

// AddEdge creates an edge between two existing nodes. It fails with
// ErrInvalidEdge if either endpoint is absent, ErrEmptyLabel if label is
// empty, and ErrAlreadyExists if the (source, target, label) triple
// already exists.
func (g *Graph) AddEdge(source, target, label string, data map[string]any) error {
	if label == "" {
		return ErrEmptyLabel
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[source]; !ok {
		return ErrInvalidEdge
	}
	if _, ok := g.nodes[target]; !ok {
		return ErrInvalidEdge
	}

	key := edgeKey{source, target, label}
	if _, exists := g.edges[key]; exists {
		return ErrAlreadyExists
	}

	g.edges[key] = &Edge{Source: source, Target: target, Label: label, Data: copyData(data)}
	g.edgeKeys = append(g.edgeKeys, key)
	g.indexEdge(key)
	return nil
}

func (g *Graph) indexEdge(key edgeKey) {
	if g.out[key.source] == nil {
		g.out[key.source] = make(map[edgeKey]struct{})
	}
	g.out[key.source][key] = struct{}{}

	if g.in[key.target] == nil {
		g.in[key.target] = make(map[edgeKey]struct{})
	}
	g.in[key.target][key] = struct{}{}
}

func (g *Graph) unindexEdge(key edgeKey) {
	if m := g.out[key.source]; m != nil {
		delete(m, key)
	}
	if m := g.in[key.target]; m != nil {
		delete(m, key)
	}
}

// UpdateNode replaces a node's data wholesale. It reports whether the node
// existed; a false return with a nil error means no node was modified.
func (g *Graph) UpdateNode(id string, data map[string]any) (bool, error) {
	if id == "" {
		return false, ErrInvalidID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return false, nil
	}
	n.Data = copyData(data)
	return true, nil
}

// UpdateEdge replaces an edge's data wholesale. It reports whether the
// edge existed.
func (g *Graph) UpdateEdge(source, target, label string, data map[string]any) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.edges[edgeKey{source, target, label}]
	if !ok {
		return false, nil
	}
	e.Data = copyData(data)
	return true, nil
}

// RemoveNode deletes a node and every edge incident to it (as either
// source or target), reporting whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return false
	}

	for key := range g.out[id] {
		g.removeEdgeUnlocked(key)
	}
	for key := range g.in[id] {
		g.removeEdgeUnlocked(key)
	}
	delete(g.out, id)
	delete(g.in, id)

	delete(g.nodes, id)
	g.nodeKeys = removeString(g.nodeKeys, id)
	return true
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// RemoveEdge deletes one edge, reporting whether it existed.
func (g *Graph) RemoveEdge(source, target, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := edgeKey{source, target, label}
	if _, ok := g.edges[key]; !ok {
		return false
	}
	g.removeEdgeUnlocked(key)
	return true
}

// removeEdgeUnlocked removes an edge assuming the caller already holds mu.
func (g *Graph) removeEdgeUnlocked(key edgeKey) {
	delete(g.edges, key)
	g.edgeKeys = removeEdgeKey(g.edgeKeys, key)
	g.unindexEdge(key)
}

func removeEdgeKey(s []edgeKey, v edgeKey) []edgeKey {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// GetNode returns a copy of the node with the given id.
func (g *Graph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return &Node{ID: n.ID, Label: n.Label, Data: copyData(n.Data)}, true
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// GetEdge returns a copy of the edge identified by (source, target, label).
func (g *Graph) GetEdge(source, target, label string) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.edges[edgeKey{source, target, label}]
	if !ok {
		return nil, false
	}
	return &Edge{Source: e.Source, Target: e.Target, Label: e.Label, Data: copyData(e.Data)}, true
}

// HasEdge reports whether an edge exists between source and target. If
// label is non-empty, only that label is considered; otherwise any label
// between the pair counts.
func (g *Graph) HasEdge(source, target, label string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if label != "" {
		_, ok := g.edges[edgeKey{source, target, label}]
		return ok
	}
	for key := range g.out[source] {
		if key.target == target {
			return true
		}
	}
	return false
}

// GetAllNodes returns a copy of every node, in insertion order.
func (g *Graph) GetAllNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Node, 0, len(g.nodeKeys))
	for _, id := range g.nodeKeys {
		n := g.nodes[id]
		out = append(out, &Node{ID: n.ID, Label: n.Label, Data: copyData(n.Data)})
	}
	return out
}

// GetAllEdges returns a copy of every edge, in insertion order.
func (g *Graph) GetAllEdges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Edge, 0, len(g.edgeKeys))
	for _, key := range g.edgeKeys {
		e := g.edges[key]
		out = append(out, &Edge{Source: e.Source, Target: e.Target, Label: e.Label, Data: copyData(e.Data)})
	}
	return out
}

// GetEdgesForNode returns copies of the edges incident to id in the given
// direction, in a deterministic (insertion) order. It scans every edge in
// the graph rather than the node's adjacency index.
func (g *Graph) GetEdgesForNode(id string, dir Direction) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*Edge
	for _, key := range g.edgeKeys {
		switch dir {
		case DirOut:
			if key.source != id {
				continue
			}
		case DirIn:
			if key.target != id {
				continue
			}
		default:
			if key.source != id && key.target != id {
				continue
			}
		}
		e := g.edges[key]
		out = append(out, &Edge{Source: e.Source, Target: e.Target, Label: e.Label, Data: copyData(e.Data)})
	}
	return out
}

// GetNeighbors returns the ids of nodes reachable from id via a single
// edge in the given direction. Duplicates are suppressed.
func (g *Graph) GetNeighbors(id string, dir Direction) []string {
	edges := g.GetEdgesForNode(id, dir)
	seen := make(map[string]struct{})
	var out []string
	for _, e := range edges {
		other := e.Source
		if e.Source == id {
			other = e.Target
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out
}

// FindNodes returns every node for which predicate returns true.
func (g *Graph) FindNodes(predicate func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.GetAllNodes() {
		if predicate(n) {
			out = append(out, n)
		}
	}
	return out
}

// FindEdges returns every edge for which predicate returns true.
func (g *Graph) FindEdges(predicate func(*Edge) bool) []*Edge {
	var out []*Edge
	for _, e := range g.GetAllEdges() {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes currently in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodeKeys)
}

// EdgeCount returns the number of edges currently in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edgeKeys)
}
