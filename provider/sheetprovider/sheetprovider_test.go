package sheetprovider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/npillmayer/nodestyles/internal/tracetest"
	"github.com/npillmayer/nodestyles/nodestyles"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Elements: html=1, head=2, style=3, body=4, div=5, p=6, a=7
var testHTML = `<html><head><style>
p { color: blue; margin: 1px 2px }
#intro { color: green !important }
@media print { p { color: black } }
a:hover { color: red }
p::first-line { font-weight: bold }
</style></head>
<body style="font-size: 12px">
<div class="box" width="100" hidden><p id="intro" style="color: red">Hello <a href="x">link</a></p></div>
</body></html>`

func testProvider(t *testing.T) *Provider {
	doc, err := ParseDocument(strings.NewReader(testHTML), "main")
	require.NoError(t, err)
	p := New(doc)
	require.NoError(t, p.AddUserAgentDefaults())
	require.NoError(t, p.AddDocumentStyles())
	return p
}

func TestParseDocument(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	doc, err := ParseDocument(strings.NewReader(testHTML), "main")
	require.NoError(t, err)
	assert.Len(t, doc.Elements(), 7)
	p, err := doc.Query("#intro")
	require.NoError(t, err)
	assert.Equal(t, style.NodeID(6), p.NodeID())
	assert.Equal(t, "#intro", p.AppropriateSelector())
	assert.Equal(t, "div.box", p.ParentNode().(*Element).AppropriateSelector())
	root, ok := doc.Element(1)
	require.True(t, ok)
	if root.ParentNode() != nil {
		t.Errorf("expected root element to have no parent, has %v", root.ParentNode())
	}
	_, err = doc.Query("table")
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = doc.Query("p[")
	assert.ErrorIs(t, err, ErrInvalidSelector)
	assert.Len(t, doc.StyleElements(), 1)
}

func TestParseStyleSheet(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	text := "p { color: blue }\n@media print {\n  p { color: black }\n}\na:hover, b { color: red }\n"
	sheet, err := ParseStyleSheet("1", protocol.OriginRegular, "test.css", text)
	require.NoError(t, err)
	require.Equal(t, 3, sheet.Len())
	assert.Equal(t, 1, sheet.rules[0].line)
	assert.Equal(t, 3, sheet.rules[1].line)
	assert.Equal(t, 5, sheet.rules[2].line)
	require.Len(t, sheet.rules[1].media, 1)
	assert.Equal(t, "print", sheet.rules[1].media[0].Text)
	assert.Equal(t, 2, sheet.rules[1].media[0].SourceLine)
	hover, b := sheet.rules[2].selectors[0], sheet.rules[2].selectors[1]
	assert.Equal(t, []string{"hover"}, hover.dynamic)
	assert.Equal(t, style.Specificity{0, 1, 1}, hover.specificity)
	assert.Equal(t, style.Specificity{0, 0, 1}, b.specificity)
	assert.Contains(t, sheet.String(), "@media print {")
}

func TestDynamicSelectors(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	sel, err := parseSelector(":focus")
	require.NoError(t, err)
	assert.Equal(t, []string{"focus"}, sel.dynamic)
	sel, err = parseSelector("div :hover > p::before")
	require.NoError(t, err)
	assert.Equal(t, "before", sel.pseudoElement)
	assert.Equal(t, style.Specificity{0, 1, 3}, sel.specificity)
}

func TestMatchedStyles(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	p := testProvider(t)
	matched, err := p.MatchedStyles(context.Background(), 6, true, true)
	require.NoError(t, err)
	rules := matched.MatchedCSSRules
	require.Len(t, rules, 4) // 2 user-agent rules, p, #intro
	assert.Equal(t, protocol.OriginUserAgent, rules[0].Rule.Origin)
	assert.Nil(t, rules[0].Rule.RuleID, "user-agent rules have no rule ID")
	assert.NotNil(t, rules[0].Rule.Style.StyleID)
	intro := rules[3].Rule
	assert.Equal(t, "#intro", intro.SelectorList.Text)
	require.NotNil(t, intro.RuleID)
	assert.Equal(t, "important", intro.Style.CSSProperties[0].Priority)
	assert.Equal(t, "green", intro.Style.CSSProperties[0].Value)
	// shorthands are followed by implicit longhands
	author := rules[2].Rule.Style
	require.Len(t, author.CSSProperties, 6)
	assert.Equal(t, "margin", author.CSSProperties[1].Name)
	assert.True(t, author.CSSProperties[2].Implicit)
	assert.Equal(t, "margin-top", author.CSSProperties[2].Name)
	assert.Equal(t, protocol.StatusActive, author.CSSProperties[2].Status)
	assert.Equal(t, []protocol.ShorthandEntry{{Name: "margin", Value: "1px 2px"}}, author.ShorthandEntries)
	for _, m := range rules {
		require.NoError(t, m.Validate())
	}
	require.Len(t, matched.PseudoElements, 1)
	assert.Equal(t, "first-line", matched.PseudoElements[0].PseudoID)
	assert.Len(t, matched.PseudoElements[0].Matches, 2)
	require.Len(t, matched.Inherited, 3) // div, body, html
	assert.NotNil(t, matched.Inherited[1].InlineStyle)
	//
	_, err = p.MatchedStyles(context.Background(), 99, false, false)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestInactiveProperties(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	decls, err := parseDeclarationText("color: red !important; color: blue; width: 1px; width: 2px")
	require.NoError(t, err)
	s := stylePayload(&protocol.StyleID{StyleSheetID: "1"}, decls, true)
	require.Len(t, s.CSSProperties, 4)
	assert.Equal(t, protocol.StatusActive, s.CSSProperties[0].Status)
	assert.Equal(t, protocol.StatusInactive, s.CSSProperties[1].Status)
	assert.Equal(t, protocol.StatusInactive, s.CSSProperties[2].Status)
	assert.Equal(t, protocol.StatusActive, s.CSSProperties[3].Status)
	s = stylePayload(nil, decls, false)
	assert.Equal(t, protocol.PropertyStatus(""), s.CSSProperties[1].Status)
}

func TestInlineAndAttributeStyles(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	p := testProvider(t)
	styles, err := p.InlineStyles(context.Background(), 6)
	require.NoError(t, err)
	require.NotNil(t, styles.InlineStyle)
	assert.Equal(t, "inline-6", styles.InlineStyle.StyleID.StyleSheetID)
	assert.Equal(t, "red", styles.InlineStyle.CSSProperties[0].Value)
	assert.Nil(t, styles.AttributesStyle)
	//
	styles, err = p.InlineStyles(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, styles.InlineStyle)
	require.NotNil(t, styles.AttributesStyle)
	attrs := styles.AttributesStyle.CSSProperties
	require.Len(t, attrs, 2)
	assert.Equal(t, protocol.CSSProperty{Name: "display", Value: "none", Text: "display: none;"}, attrs[0])
	assert.Equal(t, "100px", attrs[1].Value)
}

func computedValue(t *testing.T, p *Provider, id style.NodeID, name string) string {
	computed, err := p.ComputedStyle(context.Background(), id)
	require.NoError(t, err)
	for _, cp := range computed {
		if cp.Name == name {
			return cp.Value
		}
	}
	return ""
}

func TestComputedStyle(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	p := testProvider(t)
	assert.Equal(t, "green", computedValue(t, p, 6, "color"), "important author rule beats inline style")
	assert.Equal(t, "1px", computedValue(t, p, 6, "margin-top"))
	assert.Equal(t, "2px", computedValue(t, p, 6, "margin-left"))
	assert.Equal(t, "12px", computedValue(t, p, 6, "font-size"), "inherited from body")
	assert.Equal(t, "block", computedValue(t, p, 6, "display"))
	assert.Equal(t, "none", computedValue(t, p, 5, "display"), "from attribute 'hidden'")
	assert.Equal(t, "static", computedValue(t, p, 6, "position"))
	assert.Equal(t, "blue", computedValue(t, p, 7, "color"), "user-agent link color")
	//
	require.NoError(t, p.ForcePseudoClass(7, ":hover", true))
	assert.Equal(t, "red", computedValue(t, p, 7, "color"))
	p.SetMediaMatcher(func(string) bool { return true })
	assert.Equal(t, "green", computedValue(t, p, 6, "color"))
}

func TestEditing(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	ctx := context.Background()
	p := testProvider(t)
	err := p.SetStyleText(ctx, style.StyleID{StyleSheetID: "1", Ordinal: 0}, "display: none")
	assert.ErrorIs(t, err, nodestyles.ErrNotEditable)
	err = p.SetRuleSelector(ctx, style.StyleID{StyleSheetID: "2", Ordinal: 0}, "p[")
	assert.ErrorIs(t, err, ErrInvalidSelector)
	err = p.SetStyleText(ctx, style.StyleID{StyleSheetID: "2", Ordinal: 42}, "color: red")
	assert.ErrorIs(t, err, ErrUnknownStyle)
	//
	id, err := p.AddRule(ctx, "main", "#intro")
	require.NoError(t, err)
	assert.Equal(t, 0, id.Ordinal)
	require.NoError(t, p.SetStyleText(ctx, id, "color: purple !important"))
	assert.Equal(t, "purple", computedValue(t, p, 6, "color"), "inspector rule comes last")
	again, err := p.AddRule(ctx, "main", "a")
	require.NoError(t, err)
	assert.Equal(t, style.StyleID{StyleSheetID: id.StyleSheetID, Ordinal: 1}, again)
	//
	require.NoError(t, p.SetRuleSelector(ctx, style.StyleID{StyleSheetID: "2", Ordinal: 0}, "div"))
	assert.Equal(t, "1em", computedValue(t, p, 6, "margin-top"), "user-agent margin")
	require.NoError(t, p.SetStyleText(ctx, style.StyleID{StyleSheetID: "inline-6"}, "margin-top: 3px"))
	assert.Equal(t, "3px", computedValue(t, p, 6, "margin-top"))
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) MediaQueryResultDidChange() { r.add("media") }
func (r *recorder) StyleSheetContentDidChange(id string) {
	r.add("sheet %s", id)
}
func (r *recorder) PseudoClassesDidChange(node style.Node) {
	r.add("pseudo %d", node.NodeID())
}
func (r *recorder) AttributeDidChange(node style.Node, name string) {
	r.add("attribute %d %s", node.NodeID(), name)
}

func TestNotificationsAreDispatchedInOrder(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	ctx := context.Background()
	p := testProvider(t)
	rec := &recorder{}
	remove := p.Observe(rec)
	require.NoError(t, p.SetAttribute(6, "class", "x"))
	require.NoError(t, p.ForcePseudoClass(7, "hover", true))
	require.NoError(t, p.ForcePseudoClass(7, "hover", true)) // no change
	p.SetMediaMatcher(nil)
	_, err := p.AddRule(ctx, "main", "p")
	require.NoError(t, err)
	require.NoError(t, p.WaitForPendingDispatches(ctx))
	assert.Equal(t, []string{"attribute 6 class", "pseudo 7", "media", "sheet 3"}, rec.recorded())
	remove()
	require.NoError(t, p.SetAttribute(6, "class", "y"))
	require.NoError(t, p.WaitForPendingDispatches(ctx))
	assert.Len(t, rec.recorded(), 4)
}

func TestProviderServesNodeStyles(t *testing.T) {
	teardown := tracetest.QuickConfig(t)
	defer teardown()
	//
	ctx := context.Background()
	p := testProvider(t)
	registry := nodestyles.NewRegistry(ctx, p, nodestyles.DefaultOptions())
	defer p.Observe(registry)()
	el, err := p.Document().Query("#intro")
	require.NoError(t, err)
	ns := registry.StylesForNode(el)
	_, err = ns.Refresh(ctx)
	require.NoError(t, err)
	//
	color := ns.EffectivePropertyForName("color")
	require.NotNil(t, color)
	assert.Equal(t, "green", color.Value())
	assert.True(t, ns.InlineStyle().PropertyForName("color").Overridden())
	assert.Equal(t, "12px", ns.EffectivePropertyForName("font-size").Value(), "inherited from body")
	require.Contains(t, ns.PseudoElements(), "first-line")
	//
	require.NoError(t, ns.ChangeStyleText(ctx, ns.InlineStyle(), "color: red !important"))
	assert.Equal(t, "red", ns.EffectivePropertyForName("color").Value())
	require.NoError(t, p.WaitForPendingDispatches(ctx))
	assert.False(t, ns.NeedsRefresh(), "own edit must not make the styles stale")
	//
	require.NoError(t, p.SetAttribute(6, "style", "color: blue"))
	require.NoError(t, p.WaitForPendingDispatches(ctx))
	assert.True(t, ns.NeedsRefresh())
	require.NoError(t, registry.RefreshIfNeeded(ctx))
	assert.Equal(t, "green", ns.EffectivePropertyForName("color").Value())
	//
	_, err = ns.AddRule(ctx, "")
	require.NoError(t, err)
	assert.Len(t, ns.MatchedRules(), 5)
	assert.Equal(t, style.OriginInspector, ns.MatchedRules()[0].Origin())
}
