package style

import (
	"fmt"
	"strconv"
)

// NodeID identifies a DOM node towards a style provider.
type NodeID int

// Node is what this package needs to know about a DOM node: its identity and
// its ancestor chain. Nodes are never mutated by the styling engine.
type Node interface {
	NodeID() NodeID
	ParentNode() Node // nil for the root
	FrameID() string  // frame the node lives in; used for inspector style sheets
}

// DeclarationType tells which style bucket a declaration belongs to.
type DeclarationType uint8

// Declaration types.
const (
	InlineStyle     DeclarationType = iota // 'style' attribute of an element
	RuleStyle                              // body of a style rule
	AttributeStyle                         // presentational HTML attributes
	ComputedStyle                          // computed values of a node
)

func (t DeclarationType) String() string {
	switch t {
	case InlineStyle:
		return "inline"
	case RuleStyle:
		return "rule"
	case AttributeStyle:
		return "attribute"
	case ComputedStyle:
		return "computed"
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// StyleID is a provider's identifier for a style or a rule: an ordinal
// within a style sheet.
type StyleID struct {
	StyleSheetID string
	Ordinal      int
}

func (id StyleID) String() string {
	return id.StyleSheetID + ":" + strconv.Itoa(id.Ordinal)
}

// Declaration is an ordered collection of properties, together with
// information about where it came from.
//
// Properties retain the order in which the provider reported them.
// Declarations live across refreshes: a refresh updates an existing
// declaration with the same identity in place.
type Declaration struct {
	id         *StyleID
	typ        DeclarationType
	node       Node
	inherited  bool
	ownerRule  *Rule
	text       string
	textRange  *TextRange
	properties []*Property
	pending    []*Property
	byName     map[string]*Property // authored name and canonical name
}

// NewDeclaration creates a declaration. id may be nil for styles without
// identity (e.g., computed style).
func NewDeclaration(id *StyleID, typ DeclarationType, node Node, inherited bool,
	text string, properties []*Property, textRange *TextRange) *Declaration {
	//
	d := &Declaration{
		id:        id,
		typ:       typ,
		node:      node,
		inherited: inherited,
	}
	d.Update(text, properties, textRange)
	return d
}

// Update re-sets text, properties and source range of d in place.
// Pending properties which are part of the new property list (i.e., have
// been committed) are removed from the list of pending properties.
func (d *Declaration) Update(text string, properties []*Property, textRange *TextRange) {
	d.text = text
	d.textRange = textRange
	d.properties = properties
	d.byName = make(map[string]*Property, len(properties))
	committed := make(map[*Property]bool, len(properties))
	for _, p := range properties {
		p.ownerStyle = d
		committed[p] = true
		if !p.enabled {
			continue
		}
		d.index(p.name, p)
		if p.canonicalName != p.name {
			d.index(p.canonicalName, p)
		}
	}
	if len(d.pending) == 0 {
		return
	}
	pending := d.pending[:0]
	for _, p := range d.pending {
		if !committed[p] {
			pending = append(pending, p)
		}
	}
	d.pending = pending
}

func (d *Declaration) index(name string, p *Property) {
	if prev, ok := d.byName[name]; ok && prev.Important() && !p.Important() {
		return
	}
	d.byName[name] = p
}

func (d *Declaration) String() string {
	s := d.typ.String()
	if d.ownerRule != nil {
		s = d.ownerRule.SelectorText()
	}
	if d.id != nil {
		s += " (" + d.id.String() + ")"
	}
	if d.inherited {
		s += " inherited"
	}
	return fmt.Sprintf("%s {%d properties}", s, len(d.properties))
}

// ID returns the style identifier of d, or nil.
func (d *Declaration) ID() *StyleID { return d.id }

// Type returns the style bucket d belongs to.
func (d *Declaration) Type() DeclarationType { return d.typ }

// Node returns the node d applies to. For inherited declarations this is
// the ancestor it has been matched to.
func (d *Declaration) Node() Node { return d.node }

// Inherited is true for declarations contributed by an ancestor.
func (d *Declaration) Inherited() bool { return d.inherited }

// OwnerRule returns the rule d is the body of, or nil.
func (d *Declaration) OwnerRule() *Rule { return d.ownerRule }

// Text returns the declaration text, if known.
func (d *Declaration) Text() string { return d.text }

// TextRange returns the source range, if known.
func (d *Declaration) TextRange() *TextRange { return d.textRange }

// Properties returns the properties in authored order.
func (d *Declaration) Properties() []*Property { return d.properties }

// PendingProperties returns properties not yet committed by the provider.
func (d *Declaration) PendingProperties() []*Property { return d.pending }

// Editable is true if d may be changed through a style provider.
func (d *Declaration) Editable() bool {
	if d.id == nil || d.typ == ComputedStyle || d.typ == AttributeStyle {
		return false
	}
	if d.ownerRule != nil {
		return d.ownerRule.Editable()
	}
	return true
}

// PropertyForName returns the enabled property with a given name. If more
// than one are present, the one winning within d is returned.
func (d *Declaration) PropertyForName(name string) *Property {
	if p, ok := d.byName[name]; ok {
		return p
	}
	return d.byName[CanonicalName(name)]
}

// PropertyAt returns the property at index i, or nil.
func (d *Declaration) PropertyAt(i int) *Property {
	if i < 0 || i >= len(d.properties) {
		return nil
	}
	return d.properties[i]
}

// NewPendingProperty creates a property which is not yet known to the
// provider. A refresh reporting a property of the same name will adopt it.
func (d *Declaration) NewPendingProperty(name, value, priority string) *Property {
	p := NewProperty(NoIndex, "", name, value, priority,
		PropertyFlags{Enabled: true, Valid: true}, nil)
	p.ownerStyle = d
	d.pending = append(d.pending, p)
	tracer().Debugf("pending property %s for %s", p, d)
	return p
}

// AdoptPendingProperty looks for a pending property with the given name and
// removes it from the pending list. Returns nil if none is present.
func (d *Declaration) AdoptPendingProperty(name string) *Property {
	for i, p := range d.pending {
		if p.name == name && p.index == NoIndex {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return p
		}
	}
	return nil
}
