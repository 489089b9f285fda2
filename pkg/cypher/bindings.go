package cypher

// EntityKind tags what a Binding refers to.
type EntityKind int

const (
	EntityNone EntityKind = iota
	EntityNode
	EntityEdge
)

// Binding is a borrowed reference to a graph entity: its kind and id(s).
// Bindings never own graph data — they carry just enough to look the
// entity back up in the graph, per spec.md §9's ownership guidance (the
// graph owns nodes/edges; everything else borrows by id).
type Binding struct {
	Kind   EntityKind
	NodeID string
	// EdgeSource/EdgeTarget/EdgeLabel identify an edge binding; set only
	// when Kind == EntityEdge.
	EdgeSource string
	EdgeTarget string
	EdgeLabel  string
}

// BindingContext maps variable names to graph entities. A child context
// inherits its parent's bindings; writes to the child never propagate
// back to the parent. Internally each context holds a map of the keys it
// set itself plus a pointer to its parent; Get walks that parent chain,
// and discarding a child drops only its own entries. Clone flattens a
// chain into a single new root.
type BindingContext struct {
	parent *BindingContext
	own    map[string]Binding
}

// NewBindingContext returns an empty root context.
func NewBindingContext() *BindingContext {
	return &BindingContext{own: map[string]Binding{}}
}

// Child returns a new context that inherits b's bindings.
func (b *BindingContext) Child() *BindingContext {
	return &BindingContext{parent: b, own: map[string]Binding{}}
}

// Get resolves name, walking up to parent contexts. The second return
// value reports whether any entry for name is stored. That includes an
// entry of Kind EntityNone, which DeleteAction stores for a deleted
// variable; such an entry is reported as bound, not removed.
func (b *BindingContext) Get(name string) (Binding, bool) {
	for c := b; c != nil; c = c.parent {
		if v, ok := c.own[name]; ok {
			return v, true
		}
	}
	return Binding{}, false
}

// Set binds name to v in this context (not the parent).
func (b *BindingContext) Set(name string, v Binding) {
	b.own[name] = v
}

// Clone returns a context with the same visible bindings flattened into a
// single new root — used when forming the Cartesian product of several
// independent pattern matches, where merging two chains cheaply matters
// more than preserving the chain structure.
func (b *BindingContext) Clone() *BindingContext {
	flat := map[string]Binding{}
	for c := b; c != nil; c = c.parent {
		for k, v := range c.own {
			if _, exists := flat[k]; !exists {
				flat[k] = v
			}
		}
	}
	return &BindingContext{own: flat}
}

// Names returns every variable name visible in this context.
func (b *BindingContext) Names() []string {
	seen := map[string]bool{}
	var out []string
	for c := b; c != nil; c = c.parent {
		for k := range c.own {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
