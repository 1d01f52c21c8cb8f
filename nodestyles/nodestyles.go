package nodestyles

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/npillmayer/nodestyles/cascade"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
	"golang.org/x/sync/errgroup"
)

// NodeStyles holds the styles of a node and keeps them up to date.
type NodeStyles struct {
	node     style.Node
	provider Provider
	opts     Options
	ctx      context.Context // refresh cycles run with this context

	mu         sync.RWMutex // guards the cascade state
	gen        *generation
	matched    []*style.Rule
	inherited  []cascade.InheritedStyles
	inline     *style.Declaration
	attributes *style.Declaration
	computed   *style.Declaration
	result     *cascade.Result
	sheets     map[string]bool

	smu              sync.Mutex // guards refresh coordination
	inflight         *refreshCall
	followUp         *refreshCall
	needsRefresh     bool
	includeUserAgent bool   // one-shot: consider user-agent rules on next refresh
	ignoreSheet      string // one-shot: ignore next content change of this sheet

	lmu            sync.Mutex
	listeners      []listenerEntry
	listenerSerial int
}

// refreshCall is a refresh cycle callers may wait for.
type refreshCall struct {
	done        chan struct{}
	significant bool
	err         error
}

// New creates the styles for node. Styles are empty until the first
// refresh. Refresh cycles are run with ctx; canceling ctx makes pending and
// future refreshes fail.
func New(ctx context.Context, node style.Node, provider Provider, opts Options) *NodeStyles {
	if ctx == nil {
		ctx = context.Background()
	}
	return &NodeStyles{
		node:         node,
		provider:     provider,
		opts:         opts,
		ctx:          ctx,
		gen:          newGeneration(),
		result:       &cascade.Result{},
		needsRefresh: true,
	}
}

// Node returns the node these styles belong to.
func (ns *NodeStyles) Node() style.Node {
	return ns.node
}

// --- Refreshing ------------------------------------------------------------

// Refresh re-fetches the styles of the node and re-computes the cascade.
// It returns when a refresh cycle started no earlier than this call has
// completed, telling whether the change was significant.
//
// If a refresh is in flight, Refresh does not start another one, but waits
// for a follow-up cycle, which is shared by all callers arriving during the
// current cycle. Canceling ctx stops waiting, not the refresh itself.
func (ns *NodeStyles) Refresh(ctx context.Context) (significantChange bool, err error) {
	ns.smu.Lock()
	var call *refreshCall
	if ns.inflight == nil {
		call = &refreshCall{done: make(chan struct{})}
		ns.inflight = call
		ns.needsRefresh = false
		go ns.run(call)
	} else {
		if ns.followUp == nil {
			ns.followUp = &refreshCall{done: make(chan struct{})}
		}
		call = ns.followUp
	}
	ns.smu.Unlock()
	select {
	case <-call.done:
		return call.significant, call.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// RefreshIfNeeded refreshes if the styles have been marked stale and no
// refresh is in flight.
func (ns *NodeStyles) RefreshIfNeeded(ctx context.Context) (significantChange bool, err error) {
	ns.smu.Lock()
	stale := ns.needsRefresh && ns.inflight == nil
	ns.smu.Unlock()
	if !stale {
		return false, nil
	}
	return ns.Refresh(ctx)
}

// NeedsRefresh is true while a refresh is in flight or if the styles have
// been marked stale.
func (ns *NodeStyles) NeedsRefresh() bool {
	ns.smu.Lock()
	defer ns.smu.Unlock()
	return ns.inflight != nil || ns.needsRefresh
}

// run executes a refresh cycle. A follow-up requested in the meantime is
// started before listeners are notified, so listeners may request
// refreshes themselves.
func (ns *NodeStyles) run(call *refreshCall) {
	call.significant, call.err = ns.refresh(ns.ctx)
	ns.smu.Lock()
	next := ns.followUp
	ns.followUp = nil
	ns.inflight = next
	if next != nil {
		ns.needsRefresh = false
		go ns.run(next)
	}
	ns.smu.Unlock()
	if call.err == nil {
		ns.dispatch(Refreshed, call.significant)
	}
	close(call.done)
}

// refresh is a single refresh cycle.
func (ns *NodeStyles) refresh(ctx context.Context) (bool, error) {
	id := ns.node.NodeID()
	tracer().Debugf("node %d: refreshing styles", id)
	var (
		matched  *protocol.MatchedStyles
		inline   *protocol.InlineStyles
		computed []protocol.ComputedProperty
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := ns.provider.MatchedStyles(gctx, id, ns.opts.IncludePseudo, ns.opts.IncludeInherited)
		if err != nil {
			return degrade(gctx, id, "matched styles", err)
		}
		matched = m
		return nil
	})
	g.Go(func() error {
		s, err := ns.provider.InlineStyles(gctx, id)
		if err != nil {
			return degrade(gctx, id, "inline styles", err)
		}
		inline = s
		return nil
	})
	g.Go(func() error {
		c, err := ns.provider.ComputedStyle(gctx, id)
		if err != nil {
			return degrade(gctx, id, "computed style", err)
		}
		computed = c
		return nil
	})
	if err := g.Wait(); err != nil {
		tracer().Infof("node %d: refresh aborted: %v", id, err)
		return false, err
	}
	if d, ok := ns.provider.(Dispatcher); ok && ns.opts.WaitForDispatches {
		if err := d.WaitForPendingDispatches(ctx); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			tracer().Infof("node %d: waiting for dispatches: %v", id, err)
		}
	}
	return ns.apply(matched, inline, computed), nil
}

// degrade drops a tier of a refresh, unless the refresh as a whole has
// been canceled.
func degrade(ctx context.Context, id style.NodeID, tier string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	tracer().Infof("node %d: fetching %s failed, continuing without: %v", id, tier, err)
	return nil
}

// apply reconciles the fetched payloads with the current state and
// re-computes the cascade. Any of the payloads may be nil.
func (ns *NodeStyles) apply(matched *protocol.MatchedStyles, inline *protocol.InlineStyles,
	computed []protocol.ComputedProperty) bool {
	//
	ns.smu.Lock()
	includeUserAgent := ns.includeUserAgent
	ns.includeUserAgent = false
	ns.smu.Unlock()

	ns.mu.Lock()
	defer ns.mu.Unlock()
	rc := newReconciler(ns.gen)
	var in cascade.Input
	if matched != nil {
		in.MatchedRules = rc.ruleMatches(protocol.ValidRuleMatches(matched.MatchedCSSRules), ns.node, false)
		if len(matched.PseudoElements) > 0 {
			in.PseudoElements = make(map[string][]*style.Rule, len(matched.PseudoElements))
			for _, pe := range matched.PseudoElements {
				in.PseudoElements[pe.PseudoID] = rc.ruleMatches(protocol.ValidRuleMatches(pe.Matches), ns.node, false)
			}
		}
		in.Inherited = rc.inherited(matched.Inherited, ns.node)
	}
	if inline != nil {
		in.InlineStyle = rc.declaration(protocol.ValidStyle(inline.InlineStyle), ns.node, false, style.InlineStyle, nil)
		in.AttributesStyle = rc.declaration(protocol.ValidStyle(inline.AttributesStyle), ns.node, false, style.AttributeStyle, nil)
	}
	result := cascade.Build(in)
	ns.computed = rc.computed(computed, ns.node, ns.computed, result.Effective)
	significant := significantChange(ns.gen, rc.current, includeUserAgent)
	ns.gen = rc.current
	ns.sheets = rc.current.styleSheets()
	ns.matched = in.MatchedRules
	ns.inherited = in.Inherited
	ns.inline = in.InlineStyle
	ns.attributes = in.AttributesStyle
	ns.result = result
	return significant
}

// --- Accessors -------------------------------------------------------------

// OrderedStyles returns the declarations of the node and its ancestors in
// cascade order, highest precedence first.
func (ns *NodeStyles) OrderedStyles() []*style.Declaration {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.result.OrderedStyles
}

// PseudoElements returns the cascades of the node's pseudo-elements, keyed
// by pseudo-element identifier.
func (ns *NodeStyles) PseudoElements() map[string]*cascade.PseudoElementStyles {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.result.PseudoElements
}

// EffectivePropertyForName returns the property winning the cascade for
// name, or nil.
func (ns *NodeStyles) EffectivePropertyForName(name string) *style.Property {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.result.Effective.Lookup(name)
}

// Dump renders the cascade of the node and of its pseudo-elements as a
// tree, marking effective and overridden properties.
func (ns *NodeStyles) Dump(title string) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	out := cascade.Dump(title, ns.result.OrderedStyles, ns.result.Effective)
	pseudos := make([]string, 0, len(ns.result.PseudoElements))
	for pe := range ns.result.PseudoElements {
		pseudos = append(pseudos, pe)
	}
	sort.Strings(pseudos)
	for _, pe := range pseudos {
		styles := ns.result.PseudoElements[pe]
		out += cascade.Dump(title+"::"+pe, styles.OrderedStyles, styles.Effective)
	}
	return out
}

// MatchedRules returns the rules matching the node, most specific first.
func (ns *NodeStyles) MatchedRules() []*style.Rule {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.matched
}

// InheritedRules returns what the ancestors of the node contribute,
// nearest ancestor first.
func (ns *NodeStyles) InheritedRules() []cascade.InheritedStyles {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.inherited
}

// InlineStyle returns the style from the node's style attribute, or nil.
func (ns *NodeStyles) InlineStyle() *style.Declaration {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.inline
}

// AttributesStyle returns the style derived from presentational
// attributes of the node, or nil.
func (ns *NodeStyles) AttributesStyle() *style.Declaration {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.attributes
}

// ComputedStyle returns the computed style of the node, or nil before the
// first refresh.
func (ns *NodeStyles) ComputedStyle() *style.Declaration {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.computed
}

// --- Stale triggers --------------------------------------------------------

func (ns *NodeStyles) markAsNeedsRefresh() {
	ns.smu.Lock()
	ns.needsRefresh = true
	ns.smu.Unlock()
	ns.dispatch(NeedsRefresh, false)
}

// MediaQueryResultDidChange marks the styles stale.
func (ns *NodeStyles) MediaQueryResultDidChange() {
	ns.markAsNeedsRefresh()
}

// PseudoClassesDidChange marks the styles stale. The next refresh will
// consider changes of user-agent rules significant.
func (ns *NodeStyles) PseudoClassesDidChange() {
	ns.smu.Lock()
	ns.includeUserAgent = true
	ns.smu.Unlock()
	ns.markAsNeedsRefresh()
}

// AttributeDidChange marks the styles stale.
func (ns *NodeStyles) AttributeDidChange(name string) {
	tracer().Debugf("node %d: attribute %q changed", ns.node.NodeID(), name)
	ns.markAsNeedsRefresh()
}

// StyleSheetContentDidChange marks the styles stale if the style sheet
// contributes to them. A notification for a style sheet just changed by an
// edit of this NodeStyles is ignored once.
func (ns *NodeStyles) StyleSheetContentDidChange(sheetID string) {
	ns.smu.Lock()
	if sheetID != "" && sheetID == ns.ignoreSheet {
		ns.ignoreSheet = ""
		ns.smu.Unlock()
		return
	}
	ns.smu.Unlock()
	ns.mu.RLock()
	uses := ns.sheets[sheetID]
	ns.mu.RUnlock()
	if uses {
		ns.markAsNeedsRefresh()
	}
}

// --- Editing ---------------------------------------------------------------

// ChangeStyleText replaces the text of a declaration and refreshes. If the
// provider rejects the change, the styles are left untouched.
func (ns *NodeStyles) ChangeStyleText(ctx context.Context, decl *style.Declaration, text string) error {
	editor, ok := ns.provider.(Editor)
	if !ok {
		return ErrNotEditable
	}
	ns.mu.RLock()
	id, editable := styleSheetID(decl), decl != nil && decl.Editable()
	ns.mu.RUnlock()
	if id == nil {
		return ErrNoStyleSheet
	}
	if !editable {
		return ErrNotEditable
	}
	ns.expectEdit(id.StyleSheetID)
	if err := editor.SetStyleText(ctx, *id, text); err != nil {
		ns.cancelEdit(id.StyleSheetID)
		return fmt.Errorf("changing text of style %s: %w", id, err)
	}
	ns.commitEdit()
	_, err := ns.Refresh(ctx)
	return err
}

// ChangeRuleSelector replaces the selector text of a rule and refreshes, as
// the rule may no longer match the node. If the provider rejects the
// change, the styles are left untouched.
func (ns *NodeStyles) ChangeRuleSelector(ctx context.Context, rule *style.Rule, selector string) error {
	editor, ok := ns.provider.(Editor)
	if !ok || rule == nil {
		return ErrNotEditable
	}
	ns.mu.RLock()
	id, editable := rule.ID(), rule.Editable()
	ns.mu.RUnlock()
	if id == nil {
		return ErrNoStyleSheet
	}
	if !editable {
		return ErrNotEditable
	}
	ns.expectEdit(id.StyleSheetID)
	if err := editor.SetRuleSelector(ctx, *id, selector); err != nil {
		ns.cancelEdit(id.StyleSheetID)
		return fmt.Errorf("changing selector of rule %s: %w", id, err)
	}
	ns.commitEdit()
	_, err := ns.Refresh(ctx)
	return err
}

// AddRule adds a rule to the inspector style sheet of the node's frame and
// refreshes. If selector is empty, a selector for the node is used.
func (ns *NodeStyles) AddRule(ctx context.Context, selector string) (style.StyleID, error) {
	editor, ok := ns.provider.(Editor)
	if !ok {
		return style.StyleID{}, ErrNotEditable
	}
	if selector == "" {
		sn, ok := ns.node.(SelectorNode)
		if !ok {
			return style.StyleID{}, ErrNoSelector
		}
		selector = sn.AppropriateSelector()
	}
	id, err := editor.AddRule(ctx, ns.node.FrameID(), selector)
	if err != nil {
		return style.StyleID{}, fmt.Errorf("adding rule %q: %w", selector, err)
	}
	tracer().Infof("node %d: added rule %s for %q", ns.node.NodeID(), id, selector)
	_, err = ns.Refresh(ctx)
	return id, err
}

// expectEdit arms the one-shot filter for the content change notification
// of the edited style sheet. It has to be armed before the provider is
// called, as the notification may arrive before the call returns.
func (ns *NodeStyles) expectEdit(sheetID string) {
	ns.smu.Lock()
	defer ns.smu.Unlock()
	ns.ignoreSheet = sheetID
}

// commitEdit marks the styles stale after the provider accepted an edit.
func (ns *NodeStyles) commitEdit() {
	ns.smu.Lock()
	defer ns.smu.Unlock()
	ns.needsRefresh = true
}

func (ns *NodeStyles) cancelEdit(sheetID string) {
	ns.smu.Lock()
	defer ns.smu.Unlock()
	if ns.ignoreSheet == sheetID {
		ns.ignoreSheet = ""
	}
}

func styleSheetID(decl *style.Declaration) *style.StyleID {
	if decl == nil || decl.ID() == nil || decl.ID().StyleSheetID == "" {
		return nil
	}
	return decl.ID()
}
