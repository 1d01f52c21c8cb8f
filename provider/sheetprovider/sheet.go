package sheetprovider

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/style"
	"golang.org/x/net/html"
)

// StyleSheet is a parsed style sheet. Rules nested in @media blocks are
// flattened; they carry the media query as a condition.
type StyleSheet struct {
	ID     string
	Origin protocol.StyleSheetOrigin
	URL    string
	rules  []*sheetRule
}

type sheetRule struct {
	ordinal      int
	selectorText string
	selectors    []*selector
	declarations []*css.Declaration
	line         int
	media        []protocol.CSSMedia
}

type selector struct {
	text          string
	matcher       cascadia.Sel // nil if the selector could not be parsed
	dynamic       []string     // dynamic pseudo-classes, stripped from matcher
	pseudoElement string
	specificity   style.Specificity
}

// ParseStyleSheet parses the text of a style sheet.
func ParseStyleSheet(id string, origin protocol.StyleSheetOrigin, url, text string) (*StyleSheet, error) {
	stylesheet, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing style sheet %s: %w", id, err)
	}
	sheet := &StyleSheet{ID: id, Origin: origin, URL: url}
	cursor := 0
	var flatten func(rules []*css.Rule, media []protocol.CSSMedia)
	flatten = func(rules []*css.Rule, media []protocol.CSSMedia) {
		for _, r := range rules {
			if r.Kind == css.AtRule {
				if r.Name == "@media" {
					m := protocol.CSSMedia{
						Text:       r.Prelude,
						Source:     protocol.MediaRule,
						SourceURL:  url,
						SourceLine: lineOf(text, &cursor, "@media"),
					}
					lineOf(text, &cursor, "{")
					flatten(r.Rules, append(media[:len(media):len(media)], m))
					lineOf(text, &cursor, "}")
				} else {
					tracer().Debugf("style sheet %s: ignoring %s rule", id, r.Name)
				}
				continue
			}
			line := 0
			if len(r.Selectors) > 0 {
				line = lineOf(text, &cursor, r.Selectors[0])
				lineOf(text, &cursor, "}")
			}
			sheet.rules = append(sheet.rules, &sheetRule{
				ordinal:      len(sheet.rules),
				selectorText: r.Prelude,
				selectors:    parseSelectors(r.Selectors),
				declarations: r.Declarations,
				line:         line,
				media:        media,
			})
		}
	}
	flatten(stylesheet.Rules, nil)
	tracer().Debugf("style sheet %s (%s) has %d rules", id, origin, len(sheet.rules))
	return sheet, nil
}

// lineOf finds s in text, starting at cursor, and returns its line number
// (starting at 1). The cursor is advanced behind s. Returns 0 if s is not
// found. Rules are located by their first selector, with the cursor
// skipping blocks, so comments naming a selector may confuse it.
func lineOf(text string, cursor *int, s string) int {
	i := strings.Index(text[*cursor:], s)
	if i < 0 {
		return 0
	}
	pos := *cursor + i
	*cursor = pos + len(s)
	return strings.Count(text[:pos], "\n") + 1
}

// Len returns the number of style rules.
func (sheet *StyleSheet) Len() int {
	return len(sheet.rules)
}

// Editable is true for author and inspector style sheets.
func (sheet *StyleSheet) Editable() bool {
	return sheet.Origin == protocol.OriginRegular || sheet.Origin == protocol.OriginInspector
}

// String serializes the style sheet. @media conditions are repeated for
// every rule.
func (sheet *StyleSheet) String() string {
	var b strings.Builder
	for _, r := range sheet.rules {
		indent := ""
		for _, m := range r.media {
			b.WriteString(indent + "@media " + m.Text + " {\n")
			indent += "  "
		}
		b.WriteString(indent + r.selectorText + " { " + declarationText(r.declarations) + " }\n")
		for range r.media {
			indent = indent[2:]
			b.WriteString(indent + "}\n")
		}
	}
	return b.String()
}

func (sheet *StyleSheet) rule(ordinal int) (*sheetRule, error) {
	if ordinal < 0 || ordinal >= len(sheet.rules) {
		return nil, fmt.Errorf("%w: %s:%d", ErrUnknownStyle, sheet.ID, ordinal)
	}
	return sheet.rules[ordinal], nil
}

func (sheet *StyleSheet) addRule(selectorText string) (*sheetRule, error) {
	selectors, err := parseSelectorText(selectorText)
	if err != nil {
		return nil, err
	}
	r := &sheetRule{
		ordinal:      len(sheet.rules),
		selectorText: strings.TrimSpace(selectorText),
		selectors:    selectors,
	}
	sheet.rules = append(sheet.rules, r)
	return r, nil
}

// --- Declarations ----------------------------------------------------------

// parseDeclarationText parses the body of a rule or the value of a 'style'
// attribute.
func parseDeclarationText(text string) ([]*css.Declaration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	// the parser drops the value of a trailing declaration without ';'
	if !strings.HasSuffix(text, ";") && !strings.HasSuffix(text, "}") {
		text += ";"
	}
	return parser.ParseDeclarations(text)
}

func declarationText(decls []*css.Declaration) string {
	texts := make([]string, len(decls))
	for i, d := range decls {
		texts[i] = d.String()
	}
	return strings.Join(texts, " ")
}

// --- Selectors -------------------------------------------------------------

// dynamicPseudoClass matches the pseudo-classes depending on user
// interaction. cascadia never matches them.
var dynamicPseudoClass = regexp.MustCompile(`:(hover|active|focus|visited|target)\b`)

func parseSelectors(texts []string) []*selector {
	selectors := make([]*selector, 0, len(texts))
	for _, t := range texts {
		sel, err := parseSelector(t)
		if err != nil {
			tracer().Infof("selector %q will never match: %v", t, err)
		}
		selectors = append(selectors, sel)
	}
	return selectors
}

// parseSelectorText parses a selector list, failing for any invalid selector.
func parseSelectorText(text string) ([]*selector, error) {
	var selectors []*selector
	for _, t := range strings.Split(text, ",") {
		sel, err := parseSelector(strings.TrimSpace(t))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, text, err)
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// parseSelector compiles a single selector. Dynamic pseudo-classes are
// stripped before compiling, and counted into the specificity.
func parseSelector(text string) (*selector, error) {
	sel := &selector{text: text}
	stripped := text
	if locs := dynamicPseudoClass.FindAllStringSubmatchIndex(text, -1); locs != nil {
		var b strings.Builder
		last := 0
		for _, loc := range locs {
			if loc[0] > 0 && text[loc[0]-1] == ':' {
				continue // a pseudo-element
			}
			b.WriteString(text[last:loc[0]])
			if loc[0] == 0 || isCombinator(text[loc[0]-1]) {
				b.WriteString("*")
			}
			sel.dynamic = append(sel.dynamic, text[loc[2]:loc[3]])
			last = loc[1]
		}
		b.WriteString(text[last:])
		stripped = b.String()
	}
	compiled, err := cascadia.ParseWithPseudoElement(stripped)
	if err != nil {
		return sel, err
	}
	sel.matcher = compiled
	sel.pseudoElement = compiled.PseudoElement()
	spec := compiled.Specificity()
	sel.specificity = style.Specificity{spec[0], spec[1] + len(sel.dynamic), spec[2]}
	return sel, nil
}

func isCombinator(c byte) bool {
	return c == ' ' || c == '>' || c == '+' || c == '~' || c == '(' || c == ','
}

// matches tests an element against the selector. Dynamic pseudo-classes
// match if they are all forced for the element.
func (sel *selector) matches(h *html.Node, pseudoElement string, forced map[string]bool) bool {
	if sel.matcher == nil || sel.pseudoElement != pseudoElement {
		return false
	}
	for _, pc := range sel.dynamic {
		if !forced[pc] {
			return false
		}
	}
	return sel.matcher.Match(h)
}

func (sel *selector) payload() protocol.Selector {
	return protocol.Selector{
		Text:        sel.text,
		Specificity: []int{sel.specificity[0], sel.specificity[1], sel.specificity[2]},
		Dynamic:     len(sel.dynamic) > 0,
	}
}
