package nodestyles

import (
	"context"
	"sync"

	"github.com/npillmayer/nodestyles/style"
)

// Registry owns the NodeStyles of a session, one per node, and fans out
// notifications concerning more than one node.
type Registry struct {
	ctx      context.Context
	provider Provider
	opts     Options
	mu       sync.Mutex
	styles   map[style.NodeID]*NodeStyles
}

// NewRegistry creates a registry for styles served by provider.
// All NodeStyles created by the registry run their refreshes with ctx.
func NewRegistry(ctx context.Context, provider Provider, opts Options) *Registry {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Registry{
		ctx:      ctx,
		provider: provider,
		opts:     opts,
		styles:   make(map[style.NodeID]*NodeStyles),
	}
}

// StylesForNode returns the styles of node, creating them if necessary.
// Newly created styles are stale and have to be refreshed.
func (r *Registry) StylesForNode(node style.Node) *NodeStyles {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ns, ok := r.styles[node.NodeID()]; ok {
		return ns
	}
	ns := New(r.ctx, node, r.provider, r.opts)
	r.styles[node.NodeID()] = ns
	tracer().Debugf("registry: styles for node %d created", node.NodeID())
	return ns
}

// Lookup returns the styles of a node, if present.
func (r *Registry) Lookup(id style.NodeID) (*NodeStyles, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.styles[id]
	return ns, ok
}

// Forget drops the styles of a node, e.g. after the node has been removed
// from the document.
func (r *Registry) Forget(id style.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.styles, id)
}

// Len returns the number of nodes with styles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.styles)
}

func (r *Registry) all() []*NodeStyles {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*NodeStyles, 0, len(r.styles))
	for _, ns := range r.styles {
		all = append(all, ns)
	}
	return all
}

// MediaQueryResultDidChange marks the styles of all nodes stale.
func (r *Registry) MediaQueryResultDidChange() {
	for _, ns := range r.all() {
		ns.MediaQueryResultDidChange()
	}
}

// StyleSheetContentDidChange notifies the styles of all nodes of a changed
// style sheet.
func (r *Registry) StyleSheetContentDidChange(sheetID string) {
	for _, ns := range r.all() {
		ns.StyleSheetContentDidChange(sheetID)
	}
}

// PseudoClassesDidChange notifies the styles of node, if present.
func (r *Registry) PseudoClassesDidChange(node style.Node) {
	if ns, ok := r.Lookup(node.NodeID()); ok {
		ns.PseudoClassesDidChange()
	}
}

// AttributeDidChange notifies the styles of node, if present.
func (r *Registry) AttributeDidChange(node style.Node, name string) {
	if ns, ok := r.Lookup(node.NodeID()); ok {
		ns.AttributeDidChange(name)
	}
}

// RefreshIfNeeded refreshes all stale styles. It returns the first error
// encountered, after having tried all of them.
func (r *Registry) RefreshIfNeeded(ctx context.Context) error {
	var first error
	for _, ns := range r.all() {
		if _, err := ns.RefreshIfNeeded(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
