package style

import (
	"strconv"
	"strings"
)

// Origin is the provenance of a style rule.
type Origin uint8

// Rule origins. The order of the constants has no meaning for the cascade;
// use package cascade for ordering.
const (
	OriginAuthor    Origin = iota // page style sheets
	OriginInspector               // style sheets created by an inspecting tool
	OriginUser                    // user style sheets
	OriginUserAgent               // browser defaults
)

func (o Origin) String() string {
	switch o {
	case OriginAuthor:
		return "author"
	case OriginInspector:
		return "inspector"
	case OriginUser:
		return "user"
	case OriginUserAgent:
		return "user-agent"
	}
	return "origin(" + strconv.Itoa(int(o)) + ")"
}

// Specificity is a selector's specificity [A,B,C], as reported upstream.
type Specificity [3]int

// Less returns true if s < other (strictly).
func (s Specificity) Less(other Specificity) bool {
	for i := range s {
		if s[i] != other[i] {
			return s[i] < other[i]
		}
	}
	return false
}

func (s Specificity) String() string {
	return "(" + strconv.Itoa(s[0]) + "," + strconv.Itoa(s[1]) + "," + strconv.Itoa(s[2]) + ")"
}

// Selector is one selector of a rule's selector list.
type Selector struct {
	Text           string
	Specificity    Specificity
	HasSpecificity bool // false if the provider did not report it
	Dynamic        bool // depends on dynamic state, e.g. :hover
}

// MediaSource tells where a media query comes from.
type MediaSource uint8

// Sources of media queries.
const (
	MediaRule        MediaSource = iota // @media rule
	MediaImportRule                     // @import with media list
	MediaLinkedSheet                    // <link media=...>
	MediaInlineSheet                    // <style media=...>
)

// Media is one entry of a rule's media context, innermost first.
type Media struct {
	Source     MediaSource
	Text       string
	SourceURL  string
	SourceLine int
}

// Rule is a style rule matched to a node: the rule's declaration together
// with its selector list, the indices of the selectors which actually
// matched, the media context and the origin.
type Rule struct {
	id               *StyleID
	origin           Origin
	sourceURL        string
	sourceLine       int
	selectorText     string
	selectors        []Selector
	matchedSelectors []int
	style            *Declaration
	media            []Media
}

// NewRule creates a rule and makes it the owner of its style declaration.
func NewRule(id *StyleID, origin Origin, sourceURL string, sourceLine int,
	selectorText string, selectors []Selector, matched []int, style *Declaration,
	media []Media) *Rule {
	//
	assertThat(style != nil, "rule %q must have a style declaration", selectorText)
	r := &Rule{id: id, origin: origin}
	r.Update(sourceURL, sourceLine, selectorText, selectors, matched, style, media)
	return r
}

// Update re-sets the fields of r in place.
func (r *Rule) Update(sourceURL string, sourceLine int, selectorText string,
	selectors []Selector, matched []int, style *Declaration, media []Media) {
	//
	r.sourceURL = sourceURL
	r.sourceLine = sourceLine
	r.selectorText = selectorText
	r.selectors = selectors
	r.matchedSelectors = matched
	r.media = media
	if r.style != nil && r.style != style {
		r.style.ownerRule = nil
	}
	r.style = style
	style.ownerRule = r
	style.typ = RuleStyle
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.selectorText)
	b.WriteString(" [")
	b.WriteString(r.origin.String())
	b.WriteString("]")
	for _, m := range r.media {
		b.WriteString(" @media ")
		b.WriteString(m.Text)
	}
	return b.String()
}

// ID returns the rule identifier, or nil.
func (r *Rule) ID() *StyleID { return r.id }

// Origin returns where the rule comes from.
func (r *Rule) Origin() Origin { return r.origin }

// SourceURL returns the URL of the rule's style sheet, if known.
func (r *Rule) SourceURL() string { return r.sourceURL }

// SourceLine returns the line of the rule in its style sheet.
func (r *Rule) SourceLine() int { return r.sourceLine }

// SelectorText returns the full selector list as text.
func (r *Rule) SelectorText() string { return r.selectorText }

// Selectors returns the selector list.
func (r *Rule) Selectors() []Selector { return r.selectors }

// MatchedSelectorIndices returns the indices of the selectors which matched
// the node.
func (r *Rule) MatchedSelectorIndices() []int { return r.matchedSelectors }

// MatchedSelectors returns the selectors which matched the node.
func (r *Rule) MatchedSelectors() []Selector {
	out := make([]Selector, 0, len(r.matchedSelectors))
	for _, i := range r.matchedSelectors {
		if i >= 0 && i < len(r.selectors) {
			out = append(out, r.selectors[i])
		}
	}
	return out
}

// Specificity returns the specificity in effect for the match, i.e. the
// greatest specificity among the matched selectors.
// From https://www.w3.org/TR/selectors/#specificity-rules
// " If the selector is a selector list, this number is calculated for each selector in the list.
// For a given matching process against the list, the specificity in effect is that of the most
// specific selector in the list that matches. "
func (r *Rule) Specificity() Specificity {
	var max Specificity
	for _, sel := range r.MatchedSelectors() {
		if max.Less(sel.Specificity) {
			max = sel.Specificity
		}
	}
	return max
}

// Style returns the rule's declaration.
func (r *Rule) Style() *Declaration { return r.style }

// Media returns the media context of the rule.
func (r *Rule) Media() []Media { return r.media }

// Editable is true for rules of author or inspector style sheets which the
// provider has given an identifier.
func (r *Rule) Editable() bool {
	return r.id != nil && (r.origin == OriginAuthor || r.origin == OriginInspector)
}

// StyleSheetID returns the ID of the rule's style sheet, or "".
func (r *Rule) StyleSheetID() string {
	if r.id == nil {
		return ""
	}
	return r.id.StyleSheetID
}

// BySpecificity orders rules by ascending specificity of their match. The
// sort should be stable, as rules with equal specificity keep the order the
// provider reported.
type BySpecificity []*Rule

func (rs BySpecificity) Len() int           { return len(rs) }
func (rs BySpecificity) Swap(i, j int)      { rs[i], rs[j] = rs[j], rs[i] }
func (rs BySpecificity) Less(i, j int) bool { return rs[i].Specificity().Less(rs[j].Specificity()) }
