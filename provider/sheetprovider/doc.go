/*
Package sheetprovider is an in-memory style provider.

It serves the styles of the elements of an HTML document, given as a parse
tree of golang.org/x/net/html, from a list of style sheets. Style sheets are
parsed with douceur, selectors are matched with cascadia. The provider
implements the Provider, Editor and Dispatcher interfaces of package
nodestyles, and may be used for tests, for command line tools, or as a
template for providers talking to a real browser backend.

The provider does not do layout. Computed values are the cascaded values
of the element, inherited values of its parent, or initial values, in this
order. Values are not interpreted.

Dynamic pseudo-classes (:hover, :focus, …) never match, unless they are
forced for an element with ForcePseudoClass. Forcing applies to the
selector as a whole, not to a single compound selector.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package sheetprovider

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'nodestyles.provider'.
func tracer() tracing.Trace {
	return tracing.Select("nodestyles.provider")
}

// Errors of the provider.
var (
	ErrUnknownStyle    = errors.New("unknown style")
	ErrUnknownNode     = errors.New("unknown node")
	ErrInvalidSelector = errors.New("invalid selector")
)
