package graph

import "encoding/json"

// jsonEdge is the wire shape of one edge inside the canonical export.
type jsonEdge struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Label  string         `json:"label"`
	Data   map[string]any `json:"data,omitempty"`
}

// jsonGraph is the canonical {nodes, edges} export shape described in
// spec.md §4.1: nodes keyed by id, edges as an ordered list.
type jsonGraph struct {
	Nodes map[string]jsonNode `json:"nodes"`
	Edges []jsonEdge          `json:"edges"`
}

type jsonNode struct {
	Label string         `json:"label"`
	Data  map[string]any `json:"data,omitempty"`
}

// ToJSON renders the graph into its canonical JSON export form.
func (g *Graph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := jsonGraph{
		Nodes: make(map[string]jsonNode, len(g.nodeKeys)),
		Edges: make([]jsonEdge, 0, len(g.edgeKeys)),
	}
	for _, id := range g.nodeKeys {
		n := g.nodes[id]
		out.Nodes[id] = jsonNode{Label: n.Label, Data: copyData(n.Data)}
	}
	for _, key := range g.edgeKeys {
		e := g.edges[key]
		out.Edges = append(out.Edges, jsonEdge{
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Data:   copyData(e.Data),
		})
	}
	return json.Marshal(out)
}

// FromJSON builds a fresh graph from the canonical export form produced by
// ToJSON. Node insertion order follows json.Unmarshal's map iteration,
// which is unspecified for Go maps — callers needing a deterministic
// ordering after a round-trip should not rely on node order surviving a
// ToJSON/FromJSON cycle, only on the node and edge sets themselves.
func FromJSON(data []byte) (*Graph, error) {
	var in jsonGraph
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	g := New()
	for id, n := range in.Nodes {
		if err := g.AddNode(id, n.Label, n.Data); err != nil {
			return nil, err
		}
	}
	for _, e := range in.Edges {
		if err := g.AddEdge(e.Source, e.Target, e.Label, e.Data); err != nil {
			return nil, err
		}
	}
	return g, nil
}
