package cascade

import (
	"sort"

	"github.com/npillmayer/nodestyles/style"
)

// InheritedStyles holds what an ancestor contributes to a node's cascade.
type InheritedStyles struct {
	Node         style.Node
	InlineStyle  *style.Declaration // may be nil
	MatchedRules []*style.Rule      // most specific first
}

// Input is everything the cascade of a node is computed from.
// Rule lists are expected most specific first.
type Input struct {
	MatchedRules    []*style.Rule
	InlineStyle     *style.Declaration
	AttributesStyle *style.Declaration
	Inherited       []InheritedStyles        // nearest ancestor first
	PseudoElements  map[string][]*style.Rule // keyed by pseudo-element identifier
}

// PseudoElementStyles is the cascade of a single pseudo-element.
type PseudoElementStyles struct {
	MatchedRules  []*style.Rule
	OrderedStyles []*style.Declaration
	Effective     EffectiveMap
}

// Result is the cascade of a node.
type Result struct {
	OrderedStyles  []*style.Declaration
	Effective      EffectiveMap
	PseudoElements map[string]*PseudoElementStyles
}

// Build computes the cascade of a node: the node's own declarations in
// cascade order, followed by the declarations of every ancestor in
// ancestor order. Properties are marked overridden and shorthands are
// associated. Every pseudo-element gets a cascade of its own, from its
// matched rules only.
func Build(in Input) *Result {
	ordered := CollectInCascadeOrder(in.MatchedRules, in.InlineStyle, in.AttributesStyle)
	for _, inh := range in.Inherited {
		ordered = append(ordered, CollectInCascadeOrder(inh.MatchedRules, inh.InlineStyle, nil)...)
	}
	result := &Result{
		OrderedStyles:  ordered,
		PseudoElements: make(map[string]*PseudoElementStyles, len(in.PseudoElements)),
	}
	result.Effective = MarkOverridden(ordered, nil)
	AssociateShorthands(ordered, result.Effective)
	tracer().Debugf("cascade of %d declarations, %d effective properties",
		len(ordered), len(result.Effective))
	for pseudoID, rules := range in.PseudoElements {
		pe := &PseudoElementStyles{
			MatchedRules:  rules,
			OrderedStyles: CollectInCascadeOrder(rules, nil, nil),
		}
		pe.Effective = MarkOverridden(pe.OrderedStyles, nil)
		AssociateShorthands(pe.OrderedStyles, pe.Effective)
		result.PseudoElements[pseudoID] = pe
	}
	return result
}

// PseudoIDs returns the pseudo-element identifiers of r, sorted.
func (r *Result) PseudoIDs() []string {
	ids := make([]string, 0, len(r.PseudoElements))
	for id := range r.PseudoElements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
