/*
Package cascade resolves the effective properties of a node from the
declarations matched to it.

Overview

Input to the cascade is what a style provider reported for a node:
matched rules (most specific first), the node's inline style and
presentational attribute style, the same kind of information for every
ancestor (for inherited properties) and matched rules for pseudo-elements.
Selector matching and specificity are computed upstream; this package
treats the rule order it is given as authoritative.

The cascade runs in three steps:

   1. CollectInCascadeOrder orders declarations, highest precedence first:
      inline style, author and inspector rules, attribute style, user and
      user-agent rules.
   2. MarkOverridden walks the ordered declarations, flags every property
      losing the cascade as overridden, and records the winner per
      canonical property name in an EffectiveMap.
   3. AssociateShorthands links longhands to the shorthand they stem from
      within each declaration, and lets a live longhand take the place of a
      live shorthand in the EffectiveMap.

Build performs all of these for a node, its ancestors and its
pseudo-elements. Pseudo-elements get cascades of their own and are never
mixed into the node's cascade.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cascade

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'nodestyles.cascade'.
func tracer() tracing.Trace {
	return tracing.Select("nodestyles.cascade")
}
