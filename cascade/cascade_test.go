package cascade

import (
	"testing"

	"github.com/npillmayer/nodestyles/style"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	id     style.NodeID
	parent *testNode
}

func (n *testNode) NodeID() style.NodeID { return n.id }
func (n *testNode) FrameID() string      { return "main" }
func (n *testNode) ParentNode() style.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

var (
	body = &testNode{id: 1}
	div  = &testNode{id: 2, parent: body}
)

type pflags uint8

const (
	important pflags = 1 << iota
	disabled
	invalid
	anonymous
)

func prop(name, value string, flags pflags) *style.Property {
	prio := ""
	if flags&important != 0 {
		prio = style.PriorityImportant
	}
	return style.NewProperty(0, "", name, value, prio, style.PropertyFlags{
		Enabled:   flags&disabled == 0,
		Valid:     flags&invalid == 0,
		Anonymous: flags&anonymous != 0,
	}, nil)
}

func decl(typ style.DeclarationType, node style.Node, inherited bool, props ...*style.Property) *style.Declaration {
	for i, p := range props {
		p.SetIndex(i)
	}
	return style.NewDeclaration(nil, typ, node, inherited, "", props, nil)
}

func rule(origin style.Origin, selector string, node style.Node, inherited bool, props ...*style.Property) *style.Rule {
	d := decl(style.RuleStyle, node, inherited, props...)
	sel := style.Selector{Text: selector}
	return style.NewRule(nil, origin, "", 0, selector, []style.Selector{sel}, []int{0}, d, nil)
}

func TestCascadeOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	inline := decl(style.InlineStyle, div, false)
	attrs := decl(style.AttributeStyle, div, false)
	ua1 := rule(style.OriginUserAgent, "div", div, false)
	a1 := rule(style.OriginAuthor, "#x", div, false)
	user := rule(style.OriginUser, "div", div, false)
	insp := rule(style.OriginInspector, ".y", div, false)
	a2 := rule(style.OriginAuthor, "div", div, false)
	ua2 := rule(style.OriginUserAgent, "*", div, false)
	ordered := CollectInCascadeOrder([]*style.Rule{ua1, a1, user, insp, a2, ua2}, inline, attrs)
	expected := []*style.Declaration{
		inline, a1.Style(), insp.Style(), a2.Style(), attrs, ua1.Style(), user.Style(), ua2.Style(),
	}
	assert.Equal(t, expected, ordered)
	//
	ordered = CollectInCascadeOrder([]*style.Rule{ua1, a1}, nil, nil)
	assert.Equal(t, []*style.Declaration{a1.Style(), ua1.Style()}, ordered)
}

// Inline `color: red`, author rule `div { color: blue !important }`.
func TestInlineLosesAgainstImportantAuthorRule(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	red := prop("color", "red", 0)
	blue := prop("color", "blue", important)
	inline := decl(style.InlineStyle, div, false, red)
	author := rule(style.OriginAuthor, "div", div, false, blue)
	result := Build(Input{MatchedRules: []*style.Rule{author}, InlineStyle: inline})
	if !red.Overridden() {
		t.Errorf("expected inline color:red to be overridden")
	}
	if blue.Overridden() {
		t.Errorf("expected color:blue !important not to be overridden")
	}
	if result.Effective.Lookup("color") != blue {
		t.Errorf("expected color:blue !important to be effective, is %v", result.Effective.Lookup("color"))
	}
}

// Rule `margin: 10px; margin-top: 5px`.
func TestLonghandFollowingShorthand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	margin := prop("margin", "10px", 0)
	top := prop("margin-top", "5px", 0)
	r := rule(style.OriginAuthor, "div", div, false, margin, top)
	result := Build(Input{MatchedRules: []*style.Rule{r}})
	t.Logf("\n%s", Dump("div", result.OrderedStyles, result.Effective))
	require.Equal(t, margin, top.RelatedShorthandProperty())
	assert.Equal(t, []*style.Property{top}, margin.RelatedLonghandProperties())
	assert.False(t, margin.Overridden())
	assert.False(t, top.Overridden())
	assert.Equal(t, top, result.Effective.Lookup("margin-top"))
	for _, side := range []string{"margin-left", "margin-right", "margin-bottom"} {
		assert.Equal(t, margin, result.Effective.Lookup(side), side)
	}
}

func TestImportanceWithinDeclaration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	first := prop("color", "red", 0)
	second := prop("color", "green", important)
	third := prop("color", "blue", 0)
	d := decl(style.InlineStyle, div, false, first, second, third)
	m := MarkOverridden([]*style.Declaration{d}, nil)
	if !first.Overridden() || second.Overridden() || !third.Overridden() {
		t.Errorf("expected only the important property to survive, have %v/%v/%v",
			first.Overridden(), second.Overridden(), third.Overridden())
	}
	if m["color"] != second {
		t.Errorf("expected important property to be effective, is %v", m["color"])
	}
	//
	a := prop("width", "1px", 0)
	b := prop("width", "2px", 0)
	d = decl(style.InlineStyle, div, false, a, b)
	m = MarkOverridden([]*style.Declaration{d}, nil)
	if !a.Overridden() || m["width"] != b {
		t.Errorf("expected later property of same declaration to win")
	}
}

func TestHigherDeclarationWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	hi := prop("color", "red", important)
	lo := prop("color", "blue", important)
	r1 := rule(style.OriginAuthor, "#a", div, false, hi)
	r2 := rule(style.OriginAuthor, "div", div, false, lo)
	res := Build(Input{MatchedRules: []*style.Rule{r1, r2}})
	if hi.Overridden() || !lo.Overridden() || res.Effective["color"] != hi {
		t.Errorf("expected the more specific rule to win when both are important")
	}
	//
	hi = prop("color", "red", 0)
	lo = prop("color", "blue", 0)
	r1 = rule(style.OriginAuthor, "#a", div, false, hi)
	r2 = rule(style.OriginAuthor, "div", div, false, lo)
	res = Build(Input{MatchedRules: []*style.Rule{r1, r2}})
	if hi.Overridden() || !lo.Overridden() || res.Effective["color"] != hi {
		t.Errorf("expected the more specific rule to win when neither is important")
	}
}

func TestInheritance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	own := prop("font-size", "12px", 0)
	inhColor := prop("color", "green", 0)
	inhMargin := prop("margin-top", "3px", 0)
	inhSize := prop("font-size", "20px", important)
	r := rule(style.OriginAuthor, "div", div, false, own)
	bodyRule := rule(style.OriginAuthor, "body", body, true, inhColor, inhMargin, inhSize)
	res := Build(Input{
		MatchedRules: []*style.Rule{r},
		Inherited:    []InheritedStyles{{Node: body, MatchedRules: []*style.Rule{bodyRule}}},
	})
	require.Len(t, res.OrderedStyles, 2)
	if res.Effective["color"] != inhColor {
		t.Errorf("expected inherited color to be effective")
	}
	if inhMargin.Overridden() || res.Effective["margin-top"] != nil {
		t.Errorf("expected non-inheritable property of ancestor to be ignored")
	}
	if !inhSize.Overridden() || res.Effective["font-size"] != own {
		t.Errorf("expected important inherited property to lose against the node's own")
	}
}

func TestDisabledAndInvalidAreNeverOverridden(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	winner := prop("color", "red", important)
	off := prop("color", "blue", disabled)
	broken := prop("color", "fuzzy", invalid)
	d := decl(style.InlineStyle, div, false, winner, off, broken)
	m := MarkOverridden([]*style.Declaration{d}, nil)
	if off.Overridden() || broken.Overridden() {
		t.Errorf("expected disabled and invalid properties not to be flagged overridden")
	}
	if m["color"] != winner {
		t.Errorf("expected enabled valid property to be effective")
	}
}

func TestAnonymousDoesNotReplaceRealWinner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	authored := prop("display", "flex", 0)
	uaImportant := prop("display", "none", important|anonymous)
	uaOnly := prop("unicode-bidi", "isolate", anonymous)
	inline := decl(style.InlineStyle, div, false, authored)
	ua := rule(style.OriginUserAgent, "div", div, false, uaImportant, uaOnly)
	res := Build(Input{MatchedRules: []*style.Rule{ua}, InlineStyle: inline})
	if res.Effective["display"] != authored || authored.Overridden() {
		t.Errorf("expected authored property to stay effective")
	}
	if !uaImportant.Overridden() {
		t.Errorf("expected anonymous property to be overridden")
	}
	if res.Effective["unicode-bidi"] != uaOnly {
		t.Errorf("expected anonymous property to seed the effective map")
	}
}

func TestAnonymousReplacesAnonymousWinner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	first := prop("color", "black", anonymous)
	second := prop("color", "gray", anonymous)
	ua := rule(style.OriginUserAgent, "div", div, false, first, second)
	res := Build(Input{MatchedRules: []*style.Rule{ua}})
	if res.Effective["color"] != second || second.Overridden() {
		t.Errorf("expected later anonymous property to win within its declaration")
	}
	if !first.Overridden() {
		t.Errorf("expected replaced anonymous winner to be overridden")
	}
}

func TestMarkOverriddenIsIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	inline := decl(style.InlineStyle, div, false,
		prop("color", "red", 0), prop("margin", "0", 0), prop("margin-left", "1px", important))
	r1 := rule(style.OriginAuthor, "div", div, false,
		prop("color", "blue", important), prop("margin-left", "2px", 0), prop("padding", "1px", 0))
	r2 := rule(style.OriginUserAgent, "div", div, false,
		prop("display", "block", anonymous), prop("color", "black", anonymous))
	ordered := CollectInCascadeOrder([]*style.Rule{r1, r2}, inline, nil)
	snapshot := func() []bool {
		var flags []bool
		for _, d := range ordered {
			for _, p := range d.Properties() {
				flags = append(flags, p.Overridden())
			}
		}
		return flags
	}
	m1 := MarkOverridden(ordered, nil)
	flags1 := snapshot()
	m2 := MarkOverridden(ordered, nil)
	flags2 := snapshot()
	assert.Equal(t, flags1, flags2)
	assert.Equal(t, m1, m2)
}

func TestShorthandLonghandConsistency(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	inline := decl(style.InlineStyle, div, false,
		prop("border-top-color", "red", 0), prop("border", "1px solid", 0),
		prop("border-top-width", "3px", 0), prop("border-color", "blue", 0))
	r := rule(style.OriginAuthor, "div", div, false,
		prop("margin", "1px", 0), prop("margin-top", "2px", 0), prop("padding-left", "1px", 0),
		prop("margin", "2px", 0), prop("margin-bottom", "3px", 0))
	res := Build(Input{MatchedRules: []*style.Rule{r}, InlineStyle: inline})
	t.Logf("\n%s", Dump("div", res.OrderedStyles, res.Effective))
	links := 0
	for _, d := range res.OrderedStyles {
		for _, p := range d.Properties() {
			sh := p.RelatedShorthandProperty()
			if sh == nil {
				continue
			}
			links++
			assert.Contains(t, sh.RelatedLonghandProperties(), p)
			assert.Equal(t, sh.Overridden(), p.Overridden(), p.Name())
			for _, l := range sh.RelatedLonghandProperties() {
				assert.Equal(t, sh, l.RelatedShorthandProperty())
			}
		}
	}
	if links == 0 {
		t.Errorf("expected some longhands to be linked")
	}
	// border-top-width is explained by the most specific live shorthand present
	bw := inline.Properties()[2]
	assert.Equal(t, "border", bw.RelatedShorthandProperty().Name())
	// the second margin replaced the first one, which is overridden
	first, second := r.Style().Properties()[0], r.Style().Properties()[3]
	assert.True(t, first.Overridden())
	assert.Equal(t, second, r.Style().Properties()[4].RelatedShorthandProperty())
	// running it twice does not duplicate links
	AssociateShorthands(res.OrderedStyles, res.Effective)
	assert.Len(t, second.RelatedLonghandProperties(), 2)
}

func TestPseudoElementsAreSeparate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.cascade")
	defer teardown()
	//
	own := prop("color", "red", 0)
	before := prop("color", "blue", important)
	r := rule(style.OriginAuthor, "div", div, false, own)
	pr := rule(style.OriginAuthor, "div::before", div, false, before)
	res := Build(Input{
		MatchedRules:   []*style.Rule{r},
		PseudoElements: map[string][]*style.Rule{"before": {pr}},
	})
	if own.Overridden() || res.Effective["color"] != own {
		t.Errorf("expected pseudo-element rules not to take part in the node's cascade")
	}
	pe := res.PseudoElements["before"]
	require.NotNil(t, pe)
	assert.Equal(t, []*style.Declaration{pr.Style()}, pe.OrderedStyles)
	assert.Equal(t, before, pe.Effective["color"])
	assert.Equal(t, []string{"before"}, res.PseudoIDs())
}

func TestLookupPrefixedName(t *testing.T) {
	p := prop("transition", "none", 0)
	m := EffectiveMap{"transition": p}
	if m.Lookup("-webkit-transition") != p {
		t.Errorf("expected lookup by prefixed name to find canonical entry")
	}
	if m.Lookup("color") != nil {
		t.Errorf("expected no entry for color")
	}
}
