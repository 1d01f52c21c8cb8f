package style

import (
	"sort"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "nodestyles.style")
	defer teardown()
	//
	cases := map[string]string{
		"color":                 "color",
		"-webkit-border-radius": "border-radius",
		"-moz-transition":       "transition",
		"-webkit-line-clamp":    "-webkit-line-clamp",
		"--main-color":          "--main-color",
		"Margin-Top":            "margin-top",
	}
	for name, expected := range cases {
		if c := CanonicalName(name); c != expected {
			t.Errorf("expected canonical name of %q to be %q, is %q", name, expected, c)
		}
	}
}

func TestShorthandTables(t *testing.T) {
	if !IsShorthand("margin") || IsShorthand("margin-top") {
		t.Errorf("expected margin to be the only shorthand of {margin, margin-top}")
	}
	sh := ShorthandsForLonghand("border-top-color")
	assert.Equal(t, []string{"border-top", "border-color", "border"}, sh)
	for shorthand, longhands := range longhandsOf {
		for _, l := range longhands {
			found := false
			for _, s := range ShorthandsForLonghand(l) {
				found = found || s == shorthand
			}
			if !found {
				t.Errorf("expected %s to roll up into %s, doesn't", l, shorthand)
			}
		}
	}
}

func TestInheritedProperties(t *testing.T) {
	if !IsInheritedProperty("color") || !IsInheritedProperty("--x") {
		t.Errorf("expected color and custom properties to be inherited")
	}
	if IsInheritedProperty("margin-top") || IsInheritedProperty("display") {
		t.Errorf("expected margin-top and display not to be inherited")
	}
}

func TestSplitCompoundProperty(t *testing.T) {
	kv, err := SplitCompoundProperty("padding", "3px 4px")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []KeyValue{
		{"padding-top", "3px"}, {"padding-right", "4px"},
		{"padding-bottom", "3px"}, {"padding-left", "4px"},
	}, kv)
	kv, err = SplitCompoundProperty("margin", "1px 2px 3px")
	if err != nil {
		t.Fatal(err)
	}
	if kv[3].Value != "2px" || kv[2].Value != "3px" {
		t.Errorf("expected margin-left=2px, margin-bottom=3px, have %v", kv)
	}
	kv, err = SplitCompoundProperty("border-top", "solid 1px red")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []KeyValue{
		{"border-top-width", "1px"}, {"border-top-style", "solid"}, {"border-top-color", "red"},
	}, kv)
	kv, err = SplitCompoundProperty("border", "2px dashed")
	if err != nil {
		t.Fatal(err)
	}
	if len(kv) != 12 || kv[0].Key != "border-top-width" || kv[11].Value != "initial" {
		t.Errorf("unexpected expansion of border: %v", kv)
	}
	kv, err = SplitCompoundProperty("font", "inherit")
	if err != nil || len(kv) != 7 {
		t.Errorf("expected CSS-wide keyword to expand to all longhands, have %v, %v", kv, err)
	}
	if _, err = SplitCompoundProperty("color", "red"); err == nil {
		t.Errorf("expected color not to be a compound property")
	}
	if _, err = SplitCompoundProperty("margin", "1px 2px 3px 4px 5px"); err == nil {
		t.Errorf("expected 5 values for margin to be an error")
	}
}

func TestDeclarationPropertyForName(t *testing.T) {
	a := NewProperty(0, "", "color", "red", PriorityImportant, PropertyFlags{Enabled: true, Valid: true}, nil)
	b := NewProperty(1, "", "color", "blue", "", PropertyFlags{Enabled: true, Valid: true}, nil)
	c := NewProperty(2, "", "-webkit-transition", "none", "", PropertyFlags{Enabled: true, Valid: true}, nil)
	d := NewDeclaration(&StyleID{"1", 0}, InlineStyle, nil, false, "", []*Property{a, b, c}, nil)
	if p := d.PropertyForName("color"); p != a {
		t.Errorf("expected important color to win within declaration, is %v", p)
	}
	if p := d.PropertyForName("transition"); p != c {
		t.Errorf("expected prefixed property to be found by canonical name, is %v", p)
	}
	if a.OwnerStyle() != d {
		t.Errorf("expected property to be owned by declaration")
	}
}

func TestPendingPropertiesAreCommitted(t *testing.T) {
	d := NewDeclaration(&StyleID{"1", 0}, InlineStyle, nil, false, "", nil, nil)
	p := d.NewPendingProperty("margin", "0", "")
	if len(d.PendingProperties()) != 1 || p.Index() != NoIndex {
		t.Fatalf("expected 1 pending property without index")
	}
	if q := d.AdoptPendingProperty("margin"); q != p {
		t.Fatalf("expected pending property to be adopted")
	}
	p.SetIndex(0)
	d.Update("margin: 0", []*Property{p}, nil)
	if len(d.PendingProperties()) != 0 {
		t.Errorf("expected no pending properties after commit, have %d", len(d.PendingProperties()))
	}
}

func TestOverriddenNeverSetForDisabled(t *testing.T) {
	p := NewProperty(0, "", "color", "red", "", PropertyFlags{Enabled: false, Valid: true, Overridden: true}, nil)
	if p.Overridden() {
		t.Errorf("expected disabled property not to be overridden")
	}
	p.SetOverridden(true)
	if p.Overridden() {
		t.Errorf("expected disabled property not to be overridden")
	}
}

func TestRuleSpecificity(t *testing.T) {
	mk := func(sel string, spec Specificity) *Rule {
		d := NewDeclaration(nil, RuleStyle, nil, false, "", nil, nil)
		return NewRule(nil, OriginAuthor, "", 0, sel,
			[]Selector{{Text: "p", Specificity: Specificity{0, 0, 1}}, {Text: sel, Specificity: spec}},
			[]int{0, 1}, d, nil)
	}
	r1 := mk("#a", Specificity{1, 0, 0})
	r2 := mk(".b", Specificity{0, 1, 0})
	r3 := mk("div", Specificity{0, 0, 1})
	if r1.Specificity() != (Specificity{1, 0, 0}) {
		t.Errorf("expected specificity of match to be the maximum, is %v", r1.Specificity())
	}
	rules := []*Rule{r1, r2, r3}
	sort.Stable(BySpecificity(rules))
	assert.Equal(t, []*Rule{r3, r2, r1}, rules)
	if r1.Style().OwnerRule() != r1 || r1.Style().Type() != RuleStyle {
		t.Errorf("expected rule to own its style")
	}
	if r1.Editable() {
		t.Errorf("expected rule without ID not to be editable")
	}
}
