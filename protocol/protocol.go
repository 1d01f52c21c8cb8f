/*
Package protocol defines the payloads a style provider delivers for a node.

The shapes follow the CSS domain of the web inspector protocol. Payloads are
plain data and carry JSON tags, so providers talking to a remote backend may
decode them directly. Every payload type has a Validate method; the styling
engine validates payloads at its boundary and drops what does not validate.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package protocol

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'nodestyles.protocol'.
func tracer() tracing.Trace {
	return tracing.Select("nodestyles.protocol")
}

// ErrInvalidPayload is wrapped by all validation errors.
var ErrInvalidPayload = errors.New("invalid style payload")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// StyleID identifies a style (or a rule) within a style sheet.
type StyleID struct {
	StyleSheetID string `json:"styleSheetId"`
	Ordinal      int    `json:"ordinal"`
}

// Validate checks the style ID.
func (id *StyleID) Validate() error {
	if id == nil {
		return nil
	}
	if id.StyleSheetID == "" {
		return invalid("style ID without style sheet ID")
	}
	if id.Ordinal < 0 {
		return invalid("negative ordinal %d", id.Ordinal)
	}
	return nil
}

// SourceRange is a text range within a style sheet.
type SourceRange struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// PropertyStatus is the state of a property as seen by the backend.
type PropertyStatus string

// Property states. An empty status is treated as StatusStyle.
const (
	StatusActive   PropertyStatus = "active"   // enabled and in effect
	StatusInactive PropertyStatus = "inactive" // enabled, but overridden within its style
	StatusDisabled PropertyStatus = "disabled" // commented out
	StatusStyle    PropertyStatus = "style"    // not editable (e.g., user-agent or attribute style)
)

// CSSProperty is one property of a style.
type CSSProperty struct {
	Name     string         `json:"name"`
	Value    string         `json:"value"`
	Priority string         `json:"priority,omitempty"`
	Implicit bool           `json:"implicit,omitempty"`
	Text     string         `json:"text,omitempty"`
	ParsedOk *bool          `json:"parsedOk,omitempty"`
	Status   PropertyStatus `json:"status,omitempty"`
	Range    *SourceRange   `json:"range,omitempty"`
}

// Validate checks a property payload.
func (p *CSSProperty) Validate() error {
	if p.Name == "" {
		return invalid("property without name")
	}
	if p.Priority != "" && p.Priority != "important" {
		return invalid("property %s has priority %q", p.Name, p.Priority)
	}
	switch p.Status {
	case "", StatusActive, StatusInactive, StatusDisabled, StatusStyle:
	default:
		return invalid("property %s has unknown status %q", p.Name, p.Status)
	}
	return nil
}

// IsParsedOk returns the parse state of the property, defaulting to true.
func (p *CSSProperty) IsParsedOk() bool {
	return p.ParsedOk == nil || *p.ParsedOk
}

// ShorthandEntry reports the value of a shorthand present in a style.
type ShorthandEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CSSStyle is a style declaration.
type CSSStyle struct {
	StyleID          *StyleID         `json:"styleId,omitempty"`
	CSSProperties    []CSSProperty    `json:"cssProperties"`
	ShorthandEntries []ShorthandEntry `json:"shorthandEntries,omitempty"`
	CSSText          string           `json:"cssText,omitempty"`
	Range            *SourceRange     `json:"range,omitempty"`
}

// Validate checks a style payload. Invalid properties make the whole style
// invalid.
func (s *CSSStyle) Validate() error {
	if s == nil {
		return invalid("missing style")
	}
	if err := s.StyleID.Validate(); err != nil {
		return err
	}
	for i := range s.CSSProperties {
		if err := s.CSSProperties[i].Validate(); err != nil {
			return fmt.Errorf("property #%d: %w", i, err)
		}
	}
	return nil
}

// Selector is a selector of a rule's selector list.
type Selector struct {
	Text        string `json:"text"`
	Specificity []int  `json:"specificity,omitempty"`
	Dynamic     bool   `json:"dynamic,omitempty"`
}

// SelectorList is a rule's selector list.
type SelectorList struct {
	Selectors []Selector   `json:"selectors"`
	Text      string       `json:"text"`
	Range     *SourceRange `json:"range,omitempty"`
}

// StyleSheetOrigin tells where a rule comes from.
type StyleSheetOrigin string

// Origins of style sheets.
const (
	OriginRegular   StyleSheetOrigin = "regular" // author style sheets
	OriginInspector StyleSheetOrigin = "inspector"
	OriginUser      StyleSheetOrigin = "user"
	OriginUserAgent StyleSheetOrigin = "user-agent"
)

// MediaSourceType tells where a media query is declared.
type MediaSourceType string

// Media sources.
const (
	MediaRule        MediaSourceType = "mediaRule"
	MediaImportRule  MediaSourceType = "importRule"
	MediaLinkedSheet MediaSourceType = "linkedSheet"
	MediaInlineSheet MediaSourceType = "inlineSheet"
)

// CSSMedia is a media query a rule is subject to.
type CSSMedia struct {
	Text       string          `json:"text"`
	Source     MediaSourceType `json:"source"`
	SourceURL  string          `json:"sourceURL,omitempty"`
	SourceLine int             `json:"sourceLine,omitempty"`
}

// CSSRule is a style rule.
type CSSRule struct {
	RuleID       *StyleID         `json:"ruleId,omitempty"`
	SelectorList SelectorList     `json:"selectorList"`
	SourceURL    string           `json:"sourceURL,omitempty"`
	SourceLine   int              `json:"sourceLine"`
	Origin       StyleSheetOrigin `json:"origin"`
	Style        CSSStyle         `json:"style"`
	Media        []CSSMedia       `json:"media,omitempty"`
}

// Validate checks a rule payload.
func (r *CSSRule) Validate() error {
	if err := r.RuleID.Validate(); err != nil {
		return err
	}
	switch r.Origin {
	case OriginRegular, OriginInspector, OriginUser, OriginUserAgent:
	default:
		return invalid("rule %q has unknown origin %q", r.SelectorList.Text, r.Origin)
	}
	for _, sel := range r.SelectorList.Selectors {
		if len(sel.Specificity) != 0 && len(sel.Specificity) != 3 {
			return invalid("selector %q has malformed specificity %v", sel.Text, sel.Specificity)
		}
	}
	if err := r.Style.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.SelectorList.Text, err)
	}
	return nil
}

// RuleMatch is a rule matching a node, with the indices of the matching
// selectors.
type RuleMatch struct {
	Rule              CSSRule `json:"rule"`
	MatchingSelectors []int   `json:"matchingSelectors"`
}

// Validate checks a rule match.
func (m *RuleMatch) Validate() error {
	if err := m.Rule.Validate(); err != nil {
		return err
	}
	for _, i := range m.MatchingSelectors {
		if i < 0 || i >= len(m.Rule.SelectorList.Selectors) {
			return invalid("rule %q: matching selector index %d out of range",
				m.Rule.SelectorList.Text, i)
		}
	}
	return nil
}

// PseudoIDMatches are the rules matching a pseudo-element of a node.
type PseudoIDMatches struct {
	PseudoID string      `json:"pseudoId"`
	Matches  []RuleMatch `json:"matches"`
}

// InheritedStyleEntry is what an ancestor contributes.
type InheritedStyleEntry struct {
	InlineStyle     *CSSStyle   `json:"inlineStyle,omitempty"`
	MatchedCSSRules []RuleMatch `json:"matchedCSSRules"`
}

// MatchedStyles is the result of fetching the matched rules of a node.
// Rule matches are listed in ascending cascade order (least specific
// first). Inherited entries are listed nearest ancestor first.
type MatchedStyles struct {
	MatchedCSSRules []RuleMatch           `json:"matchedCSSRules"`
	PseudoElements  []PseudoIDMatches     `json:"pseudoElements,omitempty"`
	Inherited       []InheritedStyleEntry `json:"inherited,omitempty"`
}

// InlineStyles is the result of fetching the inline and attribute styles of
// a node. Both may be nil.
type InlineStyles struct {
	InlineStyle     *CSSStyle `json:"inlineStyle,omitempty"`
	AttributesStyle *CSSStyle `json:"attributesStyle,omitempty"`
}

// ComputedProperty is one computed property of a node.
type ComputedProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ValidRuleMatches filters a list of rule matches, dropping (and tracing)
// the invalid ones.
func ValidRuleMatches(matches []RuleMatch) []RuleMatch {
	valid := matches[:0:0]
	for i := range matches {
		if err := matches[i].Validate(); err != nil {
			tracer().Errorf("dropping rule match: %v", err)
			continue
		}
		valid = append(valid, matches[i])
	}
	return valid
}

// ValidStyle returns s if it validates, nil otherwise.
func ValidStyle(s *CSSStyle) *CSSStyle {
	if s == nil {
		return nil
	}
	if err := s.Validate(); err != nil {
		tracer().Errorf("dropping style: %v", err)
		return nil
	}
	return s
}
