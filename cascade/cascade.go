package cascade

import (
	"github.com/npillmayer/nodestyles/style"
)

// EffectiveMap maps canonical property names to the property currently
// winning the cascade for that name.
type EffectiveMap map[string]*style.Property

// Lookup returns the effective property for a name. If name is not present
// as given, its canonical name is tried. For a longhand without an entry of
// its own, the entry of the most specific shorthand containing it is
// returned, if any. Returns nil if no property is effective for name.
//
//    m.Lookup("margin-left")  =>  "margin: 10px" (if no margin-left had been set)
//
func (m EffectiveMap) Lookup(name string) *style.Property {
	if p, ok := m[name]; ok {
		return p
	}
	cname := style.CanonicalName(name)
	if p, ok := m[cname]; ok {
		return p
	}
	for _, sh := range style.ShorthandsForLonghand(cname) {
		if p, ok := m[sh]; ok {
			return p
		}
	}
	return nil
}

// CollectInCascadeOrder returns the declarations of a node, highest
// precedence first. Clients have to provide matched rules in reverse
// cascade order, i.e. most specific (or most recently matched) first.
//
// The order is:
//
//    1. the inline style
//    2. author and inspector rules
//    3. the style from presentational HTML attributes
//    4. user and user-agent rules
//
// Presentational attributes have to be out-ranked by author rules, but
// themselves out-rank user-agent defaults, thus they are placed in between.
// inline and attributes may be nil.
func CollectInCascadeOrder(matchedRules []*style.Rule, inline, attributes *style.Declaration) []*style.Declaration {
	result := make([]*style.Declaration, 0, len(matchedRules)+2)
	if inline != nil {
		result = append(result, inline)
	}
	var userAndUserAgent []*style.Declaration
	for _, rule := range matchedRules {
		if rule == nil || rule.Style() == nil {
			tracer().Errorf("cascade: matched rule without style, skipping")
			continue
		}
		switch rule.Origin() {
		case style.OriginInspector, style.OriginAuthor:
			result = append(result, rule.Style())
		case style.OriginUser, style.OriginUserAgent:
			userAndUserAgent = append(userAndUserAgent, rule.Style())
		}
	}
	if attributes != nil {
		result = append(result, attributes)
	}
	return append(result, userAndUserAgent...)
}

// MarkOverridden walks styles in cascade order and sets the overridden
// flag of every property. The winner for each canonical property name is
// recorded in effective, which may be nil. The (possibly new) effective
// map is returned.
//
// A property loses against a winner already recorded for its name, except
//
//   - the winner is from the same declaration, and it is not the case that
//     the winner is important while the candidate is not, or
//   - the winner is from another declaration of the same node, it is not
//     important and the candidate is.
//
// Disabled and invalid properties, as well as non-inheritable properties of
// inherited declarations, take no part in the cascade; they are never
// flagged as overridden. An anonymous property (e.g., from a user-agent
// style) never replaces a winner which is not anonymous.
//
// MarkOverridden is idempotent.
func MarkOverridden(styles []*style.Declaration, effective EffectiveMap) EffectiveMap {
	if effective == nil {
		effective = make(EffectiveMap)
	}
	for _, decl := range styles {
		for _, p := range decl.Properties() {
			if !p.Enabled() || !p.Valid() {
				p.SetOverridden(false)
				continue
			}
			if decl.Inherited() && !p.Inherited() {
				p.SetOverridden(false)
				continue
			}
			name := p.CanonicalName()
			if winner, ok := effective[name]; ok {
				if !replaces(p, winner) || (p.Anonymous() && !winner.Anonymous()) {
					p.SetOverridden(true)
					continue
				}
				// also when both are anonymous: exactly one property per name is not overridden
				winner.SetOverridden(true)
			}
			p.SetOverridden(false)
			effective[name] = p
		}
	}
	return effective
}

// replaces checks if candidate p takes the place of the current winner.
func replaces(p, winner *style.Property) bool {
	if winner.OwnerStyle() == p.OwnerStyle() {
		return !winner.Important() || p.Important()
	}
	return !winner.Important() && p.Important() &&
		sameNode(winner.OwnerStyle().Node(), p.OwnerStyle().Node())
}

func sameNode(a, b style.Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.NodeID() == b.NodeID()
}

// AssociateShorthands links longhands to their shorthands, separately for
// every declaration in styles.
//
// Within a declaration, the last valid shorthand of a name is the one
// longhands are linked to (an earlier one is only replaced if it has been
// overridden). A longhand rolling up into more than one shorthand is linked
// to the most specific shorthand present. A link is made only if shorthand
// and longhand agree on being overridden.
//
// If effective is given and a linked shorthand is the effective property
// for its name, the (enabled) longhand becomes the effective property for
// its own name.
func AssociateShorthands(styles []*style.Declaration, effective EffectiveMap) {
	for _, decl := range styles {
		properties := decl.Properties()
		for _, p := range properties {
			p.SetRelatedShorthandProperty(nil)
			p.ClearRelatedLonghandProperties()
		}
		knownShorthands := make(map[string]*style.Property)
		for _, p := range properties {
			if !p.Valid() || !style.IsShorthand(p.CanonicalName()) {
				continue
			}
			if known, ok := knownShorthands[p.CanonicalName()]; ok && !known.Overridden() {
				continue
			}
			knownShorthands[p.CanonicalName()] = p
		}
		if len(knownShorthands) == 0 {
			continue
		}
		for _, p := range properties {
			if !p.Valid() {
				continue
			}
			var shorthand *style.Property
			for _, name := range style.ShorthandsForLonghand(p.CanonicalName()) {
				if sh, ok := knownShorthands[name]; ok {
					shorthand = sh
					break
				}
			}
			if shorthand == nil || shorthand.Overridden() != p.Overridden() {
				continue
			}
			shorthand.AddRelatedLonghandProperty(p)
			p.SetRelatedShorthandProperty(shorthand)
			if effective == nil || effective[shorthand.CanonicalName()] != shorthand {
				continue
			}
			if p.Enabled() && (!decl.Inherited() || p.Inherited()) {
				effective[p.CanonicalName()] = p
			}
		}
	}
}
