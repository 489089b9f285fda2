package graph

// PathOptions constrains a FindPaths traversal.
type PathOptions struct {
	// MaxDepth bounds the number of edges in any returned path. Zero means
	// unbounded (still finite, since paths are simple on nodes).
	MaxDepth int
	// RelationshipTypes, if non-empty, restricts traversal to edges whose
	// label is in this set.
	RelationshipTypes []string
	// Direction restricts which adjacency side is followed.
	Direction Direction
}

// FindPaths performs a depth-first backtracking search from start to end,
// bounded by opts.MaxDepth, and returns every simple path (no repeated
// node) as a sequence of node ids, ordered from start to end.
func (g *Graph) FindPaths(start, end string, opts PathOptions) [][]string {
	if !g.HasNode(start) || !g.HasNode(end) {
		return nil
	}

	allowed := make(map[string]struct{}, len(opts.RelationshipTypes))
	for _, t := range opts.RelationshipTypes {
		allowed[t] = struct{}{}
	}

	var results [][]string
	visited := map[string]bool{start: true}
	path := []string{start}

	var walk func(node string)
	walk = func(node string) {
		if node == end && len(path) > 1 {
			results = append(results, append([]string(nil), path...))
		}
		if opts.MaxDepth > 0 && len(path)-1 >= opts.MaxDepth {
			return
		}
		for _, e := range g.GetEdgesForNode(node, opts.Direction) {
			if len(allowed) > 0 {
				if _, ok := allowed[e.Label]; !ok {
					continue
				}
			}
			next := e.Target
			if e.Source != node {
				next = e.Source
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
			visited[next] = false
		}
	}

	walk(start)
	return results
}
