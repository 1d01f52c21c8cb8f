package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"
)

// NoIndex is the index of properties which do not have a position within
// their declaration, e.g. computed properties or properties pending to be
// committed.
const NoIndex = -1

// Priority values of a property.
const (
	PriorityNone      = ""
	PriorityImportant = "important"
)

// TextRange is a source range within a style sheet.
type TextRange struct {
	StartLine, StartColumn int
	EndLine, EndColumn     int
}

func (r *TextRange) String() string {
	if r == nil {
		return "[-]"
	}
	return fmt.Sprintf("[%d:%d–%d:%d]", r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
}

// PropertyFlags bundles the boolean state of a property as reported by a
// style provider.
type PropertyFlags struct {
	Enabled    bool // false if the property has been commented out/disabled
	Overridden bool // pre-set by the provider; re-computed by the cascade
	Implicit   bool // not authored, present because it resolves to a default
	Anonymous  bool // stems from a non-editable origin
	Valid      bool // the value has been parsed successfully
}

// Property is one occurrence of a CSS property within a declaration, e.g.
//
//     color: black !important
//
// Properties are mutable: a refresh will update a property in place if it
// is able to identify it. The cascade flags (overridden, related shorthand
// and longhands) are maintained by package cascade.
type Property struct {
	index         int
	text          string
	name          string
	canonicalName string
	value         string
	priority      string
	enabled       bool
	overridden    bool
	implicit      bool
	anonymous     bool
	valid         bool
	textRange     *TextRange

	ownerStyle       *Declaration
	relatedShorthand *Property
	relatedLonghands []*Property
}

// NewProperty creates a property. index may be NoIndex.
func NewProperty(index int, text, name, value, priority string, flags PropertyFlags,
	textRange *TextRange) *Property {
	//
	p := &Property{index: index}
	p.Update(text, name, value, priority, flags, textRange)
	return p
}

// Update re-sets all the authored fields of a property in place.
// Cascade state is kept; it will be re-computed by the next cascade pass.
func (p *Property) Update(text, name, value, priority string, flags PropertyFlags,
	textRange *TextRange) {
	//
	p.text = text
	p.name = name
	p.canonicalName = CanonicalName(name)
	p.value = strings.TrimSpace(value)
	p.priority = priority
	p.enabled = flags.Enabled
	p.implicit = flags.Implicit
	p.anonymous = flags.Anonymous
	p.valid = flags.Valid
	p.overridden = flags.Overridden && p.enabled && p.valid
	p.textRange = textRange
}

func (p *Property) String() string {
	s := p.name + ": " + p.value
	if p.Important() {
		s += " !important"
	}
	return s
}

// Index returns the position of p within its declaration, or NoIndex.
func (p *Property) Index() int { return p.index }

// SetIndex is used when a pending property gets committed.
func (p *Property) SetIndex(index int) { p.index = index }

// Text returns the authored text of the property, if known.
func (p *Property) Text() string { return p.text }

// Name returns the name as authored.
func (p *Property) Name() string { return p.name }

// CanonicalName returns the prefix-normalized name.
func (p *Property) CanonicalName() string { return p.canonicalName }

// Value returns the property value without any "!important".
func (p *Property) Value() string { return p.value }

// Priority returns "important" or the empty string.
func (p *Property) Priority() string { return p.priority }

// Important is true for properties marked "!important".
func (p *Property) Important() bool { return p.priority == PriorityImportant }

// Enabled is false for disabled properties.
func (p *Property) Enabled() bool { return p.enabled }

// Overridden is true if another property wins the cascade over p.
func (p *Property) Overridden() bool { return p.overridden }

// SetOverridden sets the overridden flag. It will never be set for disabled
// or invalid properties.
func (p *Property) SetOverridden(overridden bool) {
	p.overridden = overridden && p.enabled && p.valid
}

// Implicit is true for properties present only because of a default.
func (p *Property) Implicit() bool { return p.implicit }

// SetImplicit sets the implicit flag.
func (p *Property) SetImplicit(implicit bool) { p.implicit = implicit }

// Anonymous is true for properties from a non-editable origin, such as
// presentational attributes and user-agent defaults.
func (p *Property) Anonymous() bool { return p.anonymous }

// Valid is false if the value did not parse.
func (p *Property) Valid() bool { return p.valid }

// Inherited is true if p is an inheritable property, i.e. may participate
// in inheritance from ancestors.
func (p *Property) Inherited() bool { return IsInheritedProperty(p.canonicalName) }

// TextRange returns the source range of p, if known.
func (p *Property) TextRange() *TextRange { return p.textRange }

// OwnerStyle returns the declaration p belongs to.
func (p *Property) OwnerStyle() *Declaration { return p.ownerStyle }

// RelatedShorthandProperty returns the shorthand explaining p, if any.
func (p *Property) RelatedShorthandProperty() *Property { return p.relatedShorthand }

// SetRelatedShorthandProperty links p to a shorthand (or unlinks it with nil).
func (p *Property) SetRelatedShorthandProperty(shorthand *Property) {
	p.relatedShorthand = shorthand
}

// RelatedLonghandProperties returns the longhands explained by shorthand p.
func (p *Property) RelatedLonghandProperties() []*Property { return p.relatedLonghands }

// AddRelatedLonghandProperty appends a longhand to the list of longhands of
// p. Adding a longhand twice has no effect.
func (p *Property) AddRelatedLonghandProperty(longhand *Property) {
	assertThat(longhand != nil, "related longhand must not be nil")
	for _, l := range p.relatedLonghands {
		if l == longhand {
			return
		}
	}
	p.relatedLonghands = append(p.relatedLonghands, longhand)
}

// ClearRelatedLonghandProperties empties the list of longhands of p.
func (p *Property) ClearRelatedLonghandProperties() {
	p.relatedLonghands = nil
}
