package nodestyles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/nodestyles/cascade"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
)

// generation holds the identities of the rules and declarations of one
// refresh.
//
// Declarations are keyed by their style ID ("sheet:ordinal"), attribute
// styles by "<node-id>:attribute". More than one declaration may share a
// key, e.g. for a rule matching a node more than once.
// Rules are keyed by "sheet:ordinal:I|N:<node-id>:<occurrence>", where I
// marks rules matched to an ancestor.
type generation struct {
	rules        map[string]*style.Rule
	declarations map[string][]*style.Declaration
}

func newGeneration() *generation {
	return &generation{
		rules:        make(map[string]*style.Rule),
		declarations: make(map[string][]*style.Declaration),
	}
}

func (g *generation) addDeclaration(key string, decl *style.Declaration) {
	for _, d := range g.declarations[key] {
		if d == decl {
			return
		}
	}
	g.declarations[key] = append(g.declarations[key], decl)
}

// findDeclaration looks for a declaration which is not the body of a rule
// and has been created for the same node, type and inheritance.
func (g *generation) findDeclaration(key string, node style.Node, inherited bool,
	typ style.DeclarationType) *style.Declaration {
	//
	for _, d := range g.declarations[key] {
		if d.OwnerRule() != nil || d.Inherited() != inherited || d.Type() != typ {
			continue
		}
		if d.Node() != nil && d.Node().NodeID() == node.NodeID() {
			return d
		}
	}
	return nil
}

// styleSheets returns the IDs of all style sheets contributing to g.
func (g *generation) styleSheets() map[string]bool {
	sheets := make(map[string]bool)
	for _, decls := range g.declarations {
		for _, d := range decls {
			if d.ID() != nil {
				sheets[d.ID().StyleSheetID] = true
			}
		}
	}
	return sheets
}

// significantChange compares two generations. A change is significant if a
// declaration key appeared or vanished, or if the declarations for a key
// are not the same objects as before. Keys of user-agent rules are skipped
// unless includeUserAgent is set, as their identifiers are not stable
// across some edits.
func significantChange(previous, current *generation, includeUserAgent bool) bool {
	for key, decls := range current.declarations {
		if prev, ok := previous.declarations[key]; ok && sameDeclarations(prev, decls) {
			continue
		}
		if !includeUserAgent && fromUserAgent(decls) {
			continue
		}
		tracer().Debugf("significant change: declarations for %s changed", key)
		return true
	}
	for key, decls := range previous.declarations {
		if _, ok := current.declarations[key]; ok {
			continue
		}
		if !includeUserAgent && fromUserAgent(decls) {
			continue
		}
		tracer().Debugf("significant change: declarations for %s vanished", key)
		return true
	}
	return false
}

func sameDeclarations(a, b []*style.Declaration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fromUserAgent checks the first declaration only: all the declarations of
// a key stem from the same style sheet and rule.
func fromUserAgent(decls []*style.Declaration) bool {
	if len(decls) == 0 {
		return false
	}
	rule := decls[0].OwnerRule()
	return rule != nil && rule.Origin() == style.OriginUserAgent
}

// --- Reconciliation --------------------------------------------------------

// reconciler turns the payloads of one refresh into style objects. Objects
// of the previous generation are re-used (and updated in place) whenever
// their identity matches; all objects end up in the current generation.
type reconciler struct {
	previous    *generation
	current     *generation
	occurrences map[string]int
}

func newReconciler(previous *generation) *reconciler {
	if previous == nil {
		previous = newGeneration()
	}
	return &reconciler{
		previous:    previous,
		current:     newGeneration(),
		occurrences: make(map[string]int),
	}
}

// ruleMatches reconciles a list of rule matches. Providers list matches in
// ascending order; the result is most specific first.
func (rc *reconciler) ruleMatches(matches []protocol.RuleMatch, node style.Node, inherited bool) []*style.Rule {
	rules := make([]*style.Rule, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		if rule := rc.rule(&matches[i].Rule, matches[i].MatchingSelectors, node, inherited); rule != nil {
			rules = append(rules, rule)
		}
	}
	return rules
}

// inherited walks the inherited entries in lockstep with the ancestors of
// node. Ancestors contributing nothing are dropped.
func (rc *reconciler) inherited(entries []protocol.InheritedStyleEntry, node style.Node) []cascade.InheritedStyles {
	var result []cascade.InheritedStyles
	ancestor := node.ParentNode()
	for i := 0; ancestor != nil && i < len(entries); i++ {
		entry := &entries[i]
		inh := cascade.InheritedStyles{Node: ancestor}
		if s := protocol.ValidStyle(entry.InlineStyle); s != nil {
			inh.InlineStyle = rc.declaration(s, ancestor, true, style.InlineStyle, nil)
		}
		inh.MatchedRules = rc.ruleMatches(protocol.ValidRuleMatches(entry.MatchedCSSRules), ancestor, true)
		if inh.InlineStyle != nil || len(inh.MatchedRules) > 0 {
			result = append(result, inh)
		}
		ancestor = ancestor.ParentNode()
	}
	return result
}

// rule reconciles a single rule. Rules matching a node more than once get a
// rule object per occurrence, so the cascade is able to treat them separately.
func (rc *reconciler) rule(payload *protocol.CSSRule, matched []int, node style.Node, inherited bool) *style.Rule {
	// user and user-agent rules have no rule ID; their style ID serves
	id := styleID(payload.RuleID)
	if id == nil {
		id = styleID(payload.Style.StyleID)
	}
	var key string
	var rule *style.Rule
	if id != nil {
		mark := "N"
		if inherited {
			mark = "I"
		}
		key = fmt.Sprintf("%s:%s:%d", id, mark, node.NodeID())
		occurrence := rc.occurrences[key]
		rc.occurrences[key] = occurrence + 1
		key += ":" + strconv.Itoa(occurrence)
		if rule = rc.previous.rules[key]; rule != nil {
			rc.current.rules[key] = rule
		}
	}
	decl := rc.declaration(&payload.Style, node, inherited, style.RuleStyle, rule)
	if decl == nil {
		return nil
	}
	selectors := selectorList(payload.SelectorList)
	media := mediaList(payload.Media)
	if rule != nil {
		rule.Update(payload.SourceURL, payload.SourceLine, payload.SelectorList.Text,
			selectors, matched, decl, media)
		return rule
	}
	rule = style.NewRule(id, origin(payload.Origin), payload.SourceURL, payload.SourceLine,
		payload.SelectorList.Text, selectors, matched, decl, media)
	if key != "" {
		rc.current.rules[key] = rule
	}
	return rule
}

// declaration reconciles a style declaration. For the body of a known rule,
// the rule's declaration is re-used. Returns nil for a new inherited
// declaration without any inheritable property.
func (rc *reconciler) declaration(payload *protocol.CSSStyle, node style.Node, inherited bool,
	typ style.DeclarationType, rule *style.Rule) *style.Declaration {
	//
	if payload == nil {
		return nil
	}
	id := styleID(payload.StyleID)
	var key string
	if id != nil {
		key = id.String()
	}
	if typ == style.AttributeStyle {
		key = strconv.Itoa(int(node.NodeID())) + ":attribute"
	}
	var decl *style.Declaration
	if rule != nil {
		decl = rule.Style()
	}
	if key != "" {
		if decl == nil {
			decl = rc.previous.findDeclaration(key, node, inherited, typ)
		}
		if decl != nil {
			rc.current.addDeclaration(key, decl)
		}
	}
	properties := make([]*style.Property, len(payload.CSSProperties))
	inheritable := 0
	for i := range payload.CSSProperties {
		pp := &payload.CSSProperties[i]
		if inherited && style.IsInheritedProperty(style.CanonicalName(pp.Name)) {
			inheritable++
		}
		properties[i] = rc.property(pp, i, decl)
	}
	textRange := sourceRange(payload.Range)
	if decl != nil {
		decl.Update(payload.CSSText, properties, textRange)
		return decl
	}
	if inherited && inheritable == 0 {
		return nil
	}
	decl = style.NewDeclaration(id, typ, node, inherited, payload.CSSText, properties, textRange)
	if key != "" {
		rc.current.addDeclaration(key, decl)
	}
	return decl
}

// property reconciles a property at position index of decl (which may be
// nil). A property of decl is re-used if it is at the same index and has
// the same name. Otherwise a pending property of the same name is adopted,
// if present.
func (rc *reconciler) property(payload *protocol.CSSProperty, index int, decl *style.Declaration) *style.Property {
	name := payload.Name
	value := stripImportant(payload.Value)
	flags := propertyFlags(payload)
	textRange := sourceRange(payload.Range)
	if decl != nil {
		var p *style.Property
		if index == style.NoIndex {
			p = decl.PropertyForName(name)
		} else {
			p = decl.PropertyAt(index)
		}
		if p != nil && p.Name() == name && p.Index() == index {
			p.Update(payload.Text, name, value, payload.Priority, flags, textRange)
			return p
		}
		if p = decl.AdoptPendingProperty(name); p != nil {
			p.SetIndex(index)
			p.Update(payload.Text, name, value, payload.Priority, flags, textRange)
			return p
		}
	}
	return style.NewProperty(index, payload.Text, name, value, payload.Priority, flags, textRange)
}

// computed reconciles the computed style of a node. A property is implicit
// if the cascade has no effective property for it.
func (rc *reconciler) computed(payload []protocol.ComputedProperty, node style.Node,
	previous *style.Declaration, effective cascade.EffectiveMap) *style.Declaration {
	//
	properties := make([]*style.Property, 0, len(payload))
	for _, cp := range payload {
		if cp.Name == "" {
			tracer().Errorf("computed property without name, skipping")
			continue
		}
		pp := protocol.CSSProperty{
			Name:     cp.Name,
			Value:    cp.Value,
			Implicit: effective.Lookup(cp.Name) == nil,
		}
		properties = append(properties, rc.property(&pp, style.NoIndex, previous))
	}
	if previous != nil {
		previous.Update("", properties, nil)
		return previous
	}
	return style.NewDeclaration(nil, style.ComputedStyle, node, false, "", properties, nil)
}

// --- Payload conversion ----------------------------------------------------

func stripImportant(value string) string {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "!important") {
		v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	}
	return v
}

// propertyFlags maps the status of a property payload. Properties without
// status stem from non-editable styles, e.g. user-agent rules or attribute
// styles, and are flagged anonymous.
func propertyFlags(payload *protocol.CSSProperty) style.PropertyFlags {
	flags := style.PropertyFlags{
		Enabled:  true,
		Implicit: payload.Implicit,
		Valid:    payload.IsParsedOk(),
	}
	switch payload.Status {
	case protocol.StatusActive:
	case protocol.StatusInactive:
		flags.Overridden = true
	case protocol.StatusDisabled:
		flags.Enabled = false
	default:
		flags.Anonymous = true
	}
	return flags
}

func styleID(id *protocol.StyleID) *style.StyleID {
	if id == nil {
		return nil
	}
	return &style.StyleID{StyleSheetID: id.StyleSheetID, Ordinal: id.Ordinal}
}

func sourceRange(r *protocol.SourceRange) *style.TextRange {
	if r == nil {
		return nil
	}
	return &style.TextRange{
		StartLine:   r.StartLine,
		StartColumn: r.StartColumn,
		EndLine:     r.EndLine,
		EndColumn:   r.EndColumn,
	}
}

func origin(o protocol.StyleSheetOrigin) style.Origin {
	switch o {
	case protocol.OriginInspector:
		return style.OriginInspector
	case protocol.OriginUser:
		return style.OriginUser
	case protocol.OriginUserAgent:
		return style.OriginUserAgent
	}
	return style.OriginAuthor
}

func selectorList(list protocol.SelectorList) []style.Selector {
	selectors := make([]style.Selector, len(list.Selectors))
	for i, s := range list.Selectors {
		selectors[i] = style.Selector{Text: s.Text, Dynamic: s.Dynamic}
		if len(s.Specificity) == 3 {
			copy(selectors[i].Specificity[:], s.Specificity)
			selectors[i].HasSpecificity = true
		}
	}
	return selectors
}

func mediaList(payload []protocol.CSSMedia) []style.Media {
	if len(payload) == 0 {
		return nil
	}
	media := make([]style.Media, len(payload))
	for i, m := range payload {
		media[i] = style.Media{Text: m.Text, SourceURL: m.SourceURL, SourceLine: m.SourceLine}
		switch m.Source {
		case protocol.MediaImportRule:
			media[i].Source = style.MediaImportRule
		case protocol.MediaLinkedSheet:
			media[i].Source = style.MediaLinkedSheet
		case protocol.MediaInlineSheet:
			media[i].Source = style.MediaInlineSheet
		default:
			media[i].Source = style.MediaRule
		}
	}
	return media
}
