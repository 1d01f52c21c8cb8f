package cascade

import (
	"strings"

	"github.com/npillmayer/nodestyles/style"
	tp "github.com/xlab/treeprint"
)

// Dump renders a list of ordered declarations as a tree, for debugging
// and for command line output. Properties are marked as follows:
//
//    ✓  effective property (if effective is given)
//    ✗  overridden
//    –  disabled
//    ?  invalid
//
func Dump(title string, styles []*style.Declaration, effective EffectiveMap) string {
	printer := tp.New()
	root := printer.AddBranch(title)
	for _, decl := range styles {
		branch := root.AddBranch(decl.String())
		for _, p := range decl.Properties() {
			branch.AddNode(propertyLine(p, effective))
		}
	}
	return printer.String()
}

func propertyLine(p *style.Property, effective EffectiveMap) string {
	var b strings.Builder
	switch {
	case !p.Valid():
		b.WriteString("? ")
	case !p.Enabled():
		b.WriteString("– ")
	case p.Overridden():
		b.WriteString("✗ ")
	case effective != nil && effective[p.CanonicalName()] == p:
		b.WriteString("✓ ")
	default:
		b.WriteString("  ")
	}
	b.WriteString(p.String())
	if p.Implicit() {
		b.WriteString(" (implicit)")
	}
	if sh := p.RelatedShorthandProperty(); sh != nil {
		b.WriteString("  ↳ ")
		b.WriteString(sh.Name())
	}
	return b.String()
}
