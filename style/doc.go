/*
Package style holds the object model of a node's styles: properties,
declarations and rules, as they are reported by a style provider.

Overview

A Property is one occurrence of a CSS property within a Declaration.
Declarations are ordered sequences of properties, tagged with the kind of
style bucket they stem from (inline style, rule, presentational attributes,
computed style). A Rule wraps a declaration together with its selectors,
media context and origin.

Objects of this package are long-lived: a refresh of a node's styles will
update existing instances in place whenever it is able to identify them, so
clients holding references to properties or declarations may keep them.
Cascade bookkeeping (overridden flags, shorthand/longhand links) is
done by package cascade; this package only stores it.

Property names are handled in canonical form, i.e., vendor prefixes of
known properties are stripped:

    CanonicalName("-webkit-transition")  =>  "transition"

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package style

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'nodestyles.style'.
func tracer() tracing.Trace {
	return tracing.Select("nodestyles.style")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("style: "+msg, msgargs...)
		panic(msg)
	}
}
