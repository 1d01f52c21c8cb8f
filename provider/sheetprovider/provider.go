package sheetprovider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/douceur/css"
	"github.com/npillmayer/nodestyles/nodestyles"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
)

// Observer is notified about changes concerning the styles of nodes.
// nodestyles.Registry is an Observer.
//
// Notifications are delivered asynchronously, in the order they occurred.
// Observers must not wait for a refresh while being notified.
type Observer interface {
	MediaQueryResultDidChange()
	StyleSheetContentDidChange(sheetID string)
	PseudoClassesDidChange(node style.Node)
	AttributeDidChange(node style.Node, name string)
}

// MediaMatcher evaluates media queries.
type MediaMatcher func(query string) bool

// Provider serves the styles of the elements of a document from a list of
// style sheets.
type Provider struct {
	mu        sync.RWMutex
	doc       *Document
	sheets    []*StyleSheet          // in order of addition
	inspector map[string]*StyleSheet // inspector style sheet per frame
	forced    map[style.NodeID]map[string]bool
	media     MediaMatcher
	serial    int // for style sheet IDs
	observers []observerEntry
	nextObs   int
	queue     *dispatchQueue
}

type observerEntry struct {
	serial   int
	observer Observer
}

var _ nodestyles.Provider = (*Provider)(nil)
var _ nodestyles.Editor = (*Provider)(nil)
var _ nodestyles.Dispatcher = (*Provider)(nil)

// New creates a provider for a document, without any style sheets.
func New(doc *Document) *Provider {
	return &Provider{
		doc:       doc,
		inspector: make(map[string]*StyleSheet),
		forced:    make(map[style.NodeID]map[string]bool),
		media:     ScreenMedia,
		queue:     newDispatchQueue(),
	}
}

// Document returns the document the provider serves styles for.
func (p *Provider) Document() *Document {
	return p.doc
}

// ScreenMedia is the default media matcher. It matches all queries except
// those for media types other than screen.
func ScreenMedia(query string) bool {
	for _, q := range strings.Split(query, ",") {
		fields := strings.Fields(strings.ToLower(q))
		if len(fields) > 0 && fields[0] == "only" {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			return true
		}
		switch fields[0] {
		case "print", "speech":
			continue
		case "not":
			if len(fields) > 1 && fields[1] == "screen" {
				continue
			}
		}
		return true
	}
	return false
}

// --- Style sheets ----------------------------------------------------------

// AddStyleSheet parses a style sheet and appends it to the style sheets
// of the given origin.
func (p *Provider) AddStyleSheet(origin protocol.StyleSheetOrigin, url, text string) (*StyleSheet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serial++
	sheet, err := ParseStyleSheet(strconv.Itoa(p.serial), origin, url, text)
	if err != nil {
		return nil, err
	}
	p.sheets = append(p.sheets, sheet)
	return sheet, nil
}

// AddUserAgentDefaults adds the default user-agent style sheet.
func (p *Provider) AddUserAgentDefaults() error {
	_, err := p.AddStyleSheet(protocol.OriginUserAgent, "", UserAgentStyleSheet())
	return err
}

// AddDocumentStyles adds the <style> elements of the document as author
// style sheets.
func (p *Provider) AddDocumentStyles() error {
	for _, text := range p.doc.StyleElements() {
		if _, err := p.AddStyleSheet(protocol.OriginRegular, "", text); err != nil {
			return err
		}
	}
	return nil
}

// StyleSheet returns a style sheet by ID.
func (p *Provider) StyleSheet(id string) (*StyleSheet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sheet := range p.sheets {
		if sheet.ID == id {
			return sheet, true
		}
	}
	return nil, false
}

func (p *Provider) styleSheet(id string) (*StyleSheet, error) {
	for _, sheet := range p.sheets {
		if sheet.ID == id {
			return sheet, nil
		}
	}
	return nil, fmt.Errorf("%w: no style sheet %s", ErrUnknownStyle, id)
}

// --- State changes ---------------------------------------------------------

// Observe registers an observer. The returned function removes it.
func (p *Provider) Observe(o Observer) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextObs++
	serial := p.nextObs
	p.observers = append(p.observers, observerEntry{serial: serial, observer: o})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, e := range p.observers {
			if e.serial == serial {
				p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
				return
			}
		}
	}
}

// notify posts a notification to all observers. Must be called with p.mu
// held.
func (p *Provider) notify(fn func(Observer)) {
	observers := make([]Observer, len(p.observers))
	for i, e := range p.observers {
		observers[i] = e.observer
	}
	if len(observers) == 0 {
		return
	}
	p.queue.post(func() {
		for _, o := range observers {
			fn(o)
		}
	})
}

// SetMediaMatcher replaces the evaluation of media queries.
func (p *Provider) SetMediaMatcher(m MediaMatcher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m == nil {
		m = ScreenMedia
	}
	p.media = m
	p.notify(func(o Observer) { o.MediaQueryResultDidChange() })
}

// ForcePseudoClass forces a dynamic pseudo-class (e.g., "hover") on or off
// for an element.
func (p *Provider) ForcePseudoClass(id style.NodeID, pseudoClass string, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.doc.Element(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	pseudoClass = strings.TrimPrefix(pseudoClass, ":")
	if p.forced[id] == nil {
		p.forced[id] = make(map[string]bool)
	}
	if p.forced[id][pseudoClass] == on {
		return nil
	}
	p.forced[id][pseudoClass] = on
	p.notify(func(o Observer) { o.PseudoClassesDidChange(el) })
	return nil
}

// SetAttribute sets an attribute of an element.
func (p *Provider) SetAttribute(id style.NodeID, name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.doc.Element(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	el.setAttribute(name, value)
	p.notify(func(o Observer) { o.AttributeDidChange(el, name) })
	return nil
}

// WaitForPendingDispatches is part of interface nodestyles.Dispatcher.
// It waits until all notifications posted so far have been delivered.
func (p *Provider) WaitForPendingDispatches(ctx context.Context) error {
	return p.queue.wait(ctx)
}

// --- Matching --------------------------------------------------------------

type match struct {
	sheet       *StyleSheet
	sheetIndex  int
	rule        *sheetRule
	selectors   []int
	specificity style.Specificity
}

func originRank(o protocol.StyleSheetOrigin) int {
	switch o {
	case protocol.OriginUserAgent:
		return 0
	case protocol.OriginUser:
		return 1
	case protocol.OriginRegular:
		return 2
	}
	return 3
}

// matchRules collects the rules matching an element (or one of its
// pseudo-elements), in ascending cascade order.
func (p *Provider) matchRules(el *Element, pseudoElement string) []match {
	forced := p.forced[el.id]
	var matches []match
	for i, sheet := range p.sheets {
	rules:
		for _, r := range sheet.rules {
			for _, m := range r.media {
				if !p.media(m.Text) {
					continue rules
				}
			}
			var m *match
			for j, sel := range r.selectors {
				if !sel.matches(el.h, pseudoElement, forced) {
					continue
				}
				if m == nil {
					m = &match{sheet: sheet, sheetIndex: i, rule: r}
				}
				m.selectors = append(m.selectors, j)
				if m.specificity.Less(sel.specificity) {
					m.specificity = sel.specificity
				}
			}
			if m != nil {
				matches = append(matches, *m)
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := &matches[i], &matches[j]
		if ra, rb := originRank(a.sheet.Origin), originRank(b.sheet.Origin); ra != rb {
			return ra < rb
		}
		if a.specificity != b.specificity {
			return a.specificity.Less(b.specificity)
		}
		if a.sheetIndex != b.sheetIndex {
			return a.sheetIndex < b.sheetIndex
		}
		return a.rule.ordinal < b.rule.ordinal
	})
	return matches
}

// pseudoElements lists the pseudo-elements named by any selector.
func (p *Provider) pseudoElements() []string {
	seen := make(map[string]bool)
	for _, sheet := range p.sheets {
		for _, r := range sheet.rules {
			for _, sel := range r.selectors {
				if sel.pseudoElement != "" {
					seen[sel.pseudoElement] = true
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Provider interface ----------------------------------------------------

func (p *Provider) element(ctx context.Context, id style.NodeID) (*Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, ok := p.doc.Element(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return el, nil
}

// MatchedStyles is part of interface nodestyles.Provider.
func (p *Provider) MatchedStyles(ctx context.Context, id style.NodeID, includePseudo,
	includeInherited bool) (*protocol.MatchedStyles, error) {
	//
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, err := p.element(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &protocol.MatchedStyles{
		MatchedCSSRules: ruleMatches(p.matchRules(el, "")),
	}
	if includePseudo {
		for _, pe := range p.pseudoElements() {
			if matches := p.matchRules(el, pe); len(matches) > 0 {
				result.PseudoElements = append(result.PseudoElements, protocol.PseudoIDMatches{
					PseudoID: pe,
					Matches:  ruleMatches(matches),
				})
			}
		}
	}
	if includeInherited {
		for a := el.parent; a != nil; a = a.parent {
			result.Inherited = append(result.Inherited, protocol.InheritedStyleEntry{
				InlineStyle:     inlineStyle(a),
				MatchedCSSRules: ruleMatches(p.matchRules(a, "")),
			})
		}
	}
	tracer().Debugf("matched styles for %s: %d rules, %d pseudo-elements, %d ancestors",
		el, len(result.MatchedCSSRules), len(result.PseudoElements), len(result.Inherited))
	return result, nil
}

// InlineStyles is part of interface nodestyles.Provider.
func (p *Provider) InlineStyles(ctx context.Context, id style.NodeID) (*protocol.InlineStyles, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, err := p.element(ctx, id)
	if err != nil {
		return nil, err
	}
	return &protocol.InlineStyles{
		InlineStyle:     inlineStyle(el),
		AttributesStyle: attributesStyle(el),
	}, nil
}

// ComputedStyle is part of interface nodestyles.Provider.
func (p *Provider) ComputedStyle(ctx context.Context, id style.NodeID) ([]protocol.ComputedProperty, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	el, err := p.element(ctx, id)
	if err != nil {
		return nil, err
	}
	values := p.computedValues(el)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	computed := make([]protocol.ComputedProperty, 0, len(names))
	for _, name := range names {
		computed = append(computed, protocol.ComputedProperty{Name: name, Value: values[name]})
	}
	return computed, nil
}

// --- Editor interface ------------------------------------------------------

const inlinePrefix = "inline-"

func inlineStyleID(el *Element) *protocol.StyleID {
	return &protocol.StyleID{StyleSheetID: inlinePrefix + strconv.Itoa(int(el.id))}
}

// SetStyleText is part of interface nodestyles.Editor.
func (p *Provider) SetStyleText(ctx context.Context, id style.StyleID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	decls, err := parseDeclarationText(text)
	if err != nil {
		return fmt.Errorf("parsing style text: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := strings.CutPrefix(id.StyleSheetID, inlinePrefix); ok {
		nodeID, err := strconv.Atoi(n)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownStyle, id)
		}
		el, ok := p.doc.Element(style.NodeID(nodeID))
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownNode, nodeID)
		}
		el.setAttribute("style", declarationText(decls))
		p.sheetChanged(id.StyleSheetID)
		return nil
	}
	sheet, err := p.styleSheet(id.StyleSheetID)
	if err != nil {
		return err
	}
	if !sheet.Editable() {
		return fmt.Errorf("%w: style sheet %s has origin %s", nodestyles.ErrNotEditable, sheet.ID, sheet.Origin)
	}
	r, err := sheet.rule(id.Ordinal)
	if err != nil {
		return err
	}
	r.declarations = decls
	p.sheetChanged(sheet.ID)
	return nil
}

// SetRuleSelector is part of interface nodestyles.Editor.
func (p *Provider) SetRuleSelector(ctx context.Context, id style.StyleID, selectorText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	selectors, err := parseSelectorText(selectorText)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	sheet, err := p.styleSheet(id.StyleSheetID)
	if err != nil {
		return err
	}
	if !sheet.Editable() {
		return fmt.Errorf("%w: style sheet %s has origin %s", nodestyles.ErrNotEditable, sheet.ID, sheet.Origin)
	}
	r, err := sheet.rule(id.Ordinal)
	if err != nil {
		return err
	}
	r.selectorText = strings.TrimSpace(selectorText)
	r.selectors = selectors
	p.sheetChanged(sheet.ID)
	return nil
}

// AddRule is part of interface nodestyles.Editor. The inspector style sheet
// of a frame is created with its first rule.
func (p *Provider) AddRule(ctx context.Context, frameID string, selectorText string) (style.StyleID, error) {
	if err := ctx.Err(); err != nil {
		return style.StyleID{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	sheet := p.inspector[frameID]
	if sheet == nil {
		p.serial++
		sheet = &StyleSheet{
			ID:     strconv.Itoa(p.serial),
			Origin: protocol.OriginInspector,
			URL:    "inspector-stylesheet",
		}
	}
	r, err := sheet.addRule(selectorText)
	if err != nil {
		return style.StyleID{}, err
	}
	if p.inspector[frameID] == nil {
		p.inspector[frameID] = sheet
		p.sheets = append(p.sheets, sheet)
		tracer().Infof("created inspector style sheet %s for frame %q", sheet.ID, frameID)
	}
	p.sheetChanged(sheet.ID)
	return style.StyleID{StyleSheetID: sheet.ID, Ordinal: r.ordinal}, nil
}

func (p *Provider) sheetChanged(id string) {
	tracer().Debugf("style sheet %s changed", id)
	p.notify(func(o Observer) { o.StyleSheetContentDidChange(id) })
}

// --- Payloads --------------------------------------------------------------

func ruleMatches(matches []match) []protocol.RuleMatch {
	result := make([]protocol.RuleMatch, len(matches))
	for i, m := range matches {
		result[i] = protocol.RuleMatch{
			Rule:              rulePayload(m.sheet, m.rule),
			MatchingSelectors: m.selectors,
		}
	}
	return result
}

func rulePayload(sheet *StyleSheet, r *sheetRule) protocol.CSSRule {
	id := &protocol.StyleID{StyleSheetID: sheet.ID, Ordinal: r.ordinal}
	rule := protocol.CSSRule{
		SelectorList: protocol.SelectorList{Text: r.selectorText},
		SourceURL:    sheet.URL,
		SourceLine:   r.line,
		Origin:       sheet.Origin,
		Style:        stylePayload(id, r.declarations, sheet.Editable()),
		Media:        r.media,
	}
	if sheet.Editable() {
		rule.RuleID = id
	}
	for _, sel := range r.selectors {
		rule.SelectorList.Selectors = append(rule.SelectorList.Selectors, sel.payload())
	}
	return rule
}

// stylePayload creates the payload of a style. Shorthands are followed by
// their longhands, flagged implicit. Properties of editable styles carry a
// status: the ones overridden by a later property of the same style are
// inactive.
func stylePayload(id *protocol.StyleID, decls []*css.Declaration, editable bool) protocol.CSSStyle {
	s := protocol.CSSStyle{
		StyleID:       id,
		CSSProperties: make([]protocol.CSSProperty, 0, len(decls)),
		CSSText:       declarationText(decls),
	}
	winner := make(map[string]int)
	add := func(prop protocol.CSSProperty) {
		if editable {
			prop.Status = protocol.StatusActive
			name := style.CanonicalName(prop.Name)
			if w, ok := winner[name]; ok {
				if s.CSSProperties[w].Priority == style.PriorityImportant && prop.Priority == "" {
					prop.Status = protocol.StatusInactive
				} else {
					s.CSSProperties[w].Status = protocol.StatusInactive
					winner[name] = len(s.CSSProperties)
				}
			} else {
				winner[name] = len(s.CSSProperties)
			}
		}
		s.CSSProperties = append(s.CSSProperties, prop)
	}
	for _, d := range decls {
		prop := protocol.CSSProperty{Name: d.Property, Value: d.Value, Text: d.String()}
		if d.Important {
			prop.Priority = style.PriorityImportant
		}
		name := style.CanonicalName(d.Property)
		if !style.IsCustomProperty(name) && !style.IsKnownProperty(name) {
			parsedOk := false
			prop.ParsedOk = &parsedOk
		}
		add(prop)
		if !style.IsShorthand(name) {
			continue
		}
		s.ShorthandEntries = append(s.ShorthandEntries, protocol.ShorthandEntry{Name: d.Property, Value: d.Value})
		longhands, err := style.SplitCompoundProperty(name, d.Value)
		if err != nil {
			tracer().Debugf("shorthand %s: %v", name, err)
			continue
		}
		for _, kv := range longhands {
			add(protocol.CSSProperty{Name: kv.Key, Value: kv.Value, Priority: prop.Priority, Implicit: true})
		}
	}
	return s
}

// inlineStyle returns the payload of the 'style' attribute of an element,
// or nil.
func inlineStyle(el *Element) *protocol.CSSStyle {
	text, ok := el.Attribute("style")
	if !ok {
		return nil
	}
	decls, err := parseDeclarationText(text)
	if err != nil {
		tracer().Errorf("style attribute of %s: %v", el, err)
		return nil
	}
	s := stylePayload(inlineStyleID(el), decls, true)
	s.CSSText = text
	return &s
}

// presentational maps presentational HTML attributes to properties.
var presentational = []struct {
	attribute, property string
	length              bool
}{
	{"width", "width", true},
	{"height", "height", true},
	{"bgcolor", "background-color", false},
	{"color", "color", false},
	{"align", "text-align", false},
	{"border", "border-width", true},
}

// attributesStyle returns the style derived from presentational attributes,
// or nil.
func attributesStyle(el *Element) *protocol.CSSStyle {
	var decls []*css.Declaration
	if _, ok := el.Attribute("hidden"); ok {
		decls = append(decls, &css.Declaration{Property: "display", Value: "none"})
	}
	for _, pa := range presentational {
		v, ok := el.Attribute(pa.attribute)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		v = strings.TrimSpace(v)
		if pa.length {
			if _, err := strconv.Atoi(v); err == nil {
				v += "px"
			}
		}
		decls = append(decls, &css.Declaration{Property: pa.property, Value: v})
	}
	if len(decls) == 0 {
		return nil
	}
	s := stylePayload(nil, decls, false)
	return &s
}

// --- Computed values -------------------------------------------------------

type declared struct {
	name      string
	value     string
	important bool
}

// expand canonicalizes property names and splits shorthands into longhands.
func expand(decls []*css.Declaration) []declared {
	result := make([]declared, 0, len(decls))
	for _, d := range decls {
		name := style.CanonicalName(d.Property)
		if style.IsShorthand(name) {
			if kvs, err := style.SplitCompoundProperty(name, d.Value); err == nil {
				for _, kv := range kvs {
					result = append(result, declared{kv.Key, kv.Value, d.Important})
				}
				continue
			}
		}
		result = append(result, declared{name, d.Value, d.Important})
	}
	return result
}

// cascadedValues resolves the declared values of an element in the order
// of precedence of the cascade.
func (p *Provider) cascadedValues(el *Element) map[string]string {
	var ua, user, author, attr, inline []declared
	for _, m := range p.matchRules(el, "") {
		decls := expand(m.rule.declarations)
		switch m.sheet.Origin {
		case protocol.OriginUserAgent:
			ua = append(ua, decls...)
		case protocol.OriginUser:
			user = append(user, decls...)
		default:
			author = append(author, decls...)
		}
	}
	if text, ok := el.Attribute("style"); ok {
		if decls, err := parseDeclarationText(text); err == nil {
			inline = expand(decls)
		}
	}
	if s := attributesStyle(el); s != nil {
		for _, prop := range s.CSSProperties {
			if !prop.Implicit && !style.IsShorthand(prop.Name) {
				attr = append(attr, declared{prop.Name, prop.Value, false})
			}
		}
		for _, e := range s.ShorthandEntries {
			attr = append(attr, expand([]*css.Declaration{{Property: e.Name, Value: e.Value}})...)
		}
	}
	values := make(map[string]string)
	apply := func(decls []declared, important bool) {
		for _, d := range decls {
			if d.important == important {
				values[d.name] = d.value
			}
		}
	}
	apply(ua, false)
	apply(user, false)
	apply(attr, false)
	apply(author, false)
	apply(inline, false)
	apply(author, true)
	apply(inline, true)
	apply(user, true)
	apply(ua, true)
	return values
}

// computedValues resolves the cascaded values of an element against the
// computed values of its parent and the initial values.
func (p *Provider) computedValues(el *Element) map[string]string {
	var parent map[string]string
	if el.parent != nil {
		parent = p.computedValues(el.parent)
	}
	cascaded := p.cascadedValues(el)
	inherit := func(name string) string {
		if v, ok := parent[name]; ok {
			return v
		}
		return initialValues[name]
	}
	values := make(map[string]string, len(initialValues))
	resolve := func(name string) {
		if _, done := values[name]; done {
			return
		}
		v, declared := cascaded[name]
		switch {
		case declared && v == "inherit":
			v = inherit(name)
		case declared && v == "initial":
			v = initialValues[name]
		case declared && (v == "unset" || v == "revert"):
			if style.IsInheritedProperty(name) {
				v = inherit(name)
			} else {
				v = initialValues[name]
			}
		case declared:
		case style.IsInheritedProperty(name):
			v = inherit(name)
		default:
			v = initialValues[name]
		}
		if v != "" {
			values[name] = v
		}
	}
	for name := range cascaded {
		resolve(name)
	}
	for name := range parent {
		if style.IsInheritedProperty(name) {
			resolve(name)
		}
	}
	for _, name := range initialNames {
		resolve(name)
	}
	return values
}

// --- Dispatching -----------------------------------------------------------

// dispatchQueue delivers notifications in order, on a goroutine of its own.
type dispatchQueue struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	posted  uint64
	done    uint64
	waiters []waiter
}

type waiter struct {
	target uint64
	ch     chan struct{}
}

func newDispatchQueue() *dispatchQueue {
	return &dispatchQueue{}
}

func (q *dispatchQueue) post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, fn)
	q.posted++
	if !q.running {
		q.running = true
		go q.drain()
	}
}

func (q *dispatchQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.queue) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.queue[0]
		q.queue = q.queue[1:]
		q.mu.Unlock()
		fn()
		q.mu.Lock()
		q.done++
		waiting := q.waiters[:0]
		for _, w := range q.waiters {
			if w.target <= q.done {
				close(w.ch)
			} else {
				waiting = append(waiting, w)
			}
		}
		q.waiters = waiting
		q.mu.Unlock()
	}
}

// wait blocks until every function posted before the call has run.
func (q *dispatchQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	if q.done >= q.posted {
		q.mu.Unlock()
		return nil
	}
	w := waiter{target: q.posted, ch: make(chan struct{})}
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
