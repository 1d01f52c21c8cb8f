/*
Package nodestyles keeps the styles of DOM nodes up to date.

A NodeStyles instance mirrors the cascade of a single node. It fetches the
matched rules, the inline and attribute styles and the computed style of its
node from a Provider, reconciles the payloads with the objects of the
previous refresh and re-computes the cascade (see package cascade).

Reconciliation preserves identity: a property, declaration or rule which is
reported again by the provider is updated in place, so clients may hold on
to them across refreshes. After every refresh, listeners receive an event
telling whether the change was significant, i.e., whether declarations
appeared or vanished. Clients usually rebuild their presentation of a node's
styles for significant changes only and otherwise just re-read values.

Refreshing

Refreshes are coalesced. While a refresh is in flight, further requests
do not start fetches of their own, but share a single follow-up refresh,
started as soon as the current one completes:

    ns := nodestyles.New(ctx, node, provider, nodestyles.DefaultOptions())
    significant, err := ns.Refresh(ctx)

The three fetches of a refresh run concurrently. If one of them fails, its
part of the cascade is empty for this refresh; the refresh itself does not
fail.

Concurrency

All methods of NodeStyles are safe for concurrent use. Objects of package
style handed out by a NodeStyles are updated in place during a refresh;
clients must not read them concurrently with a refresh in progress.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package nodestyles

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'nodestyles.refresh'.
func tracer() tracing.Trace {
	return tracing.Select("nodestyles.refresh")
}
