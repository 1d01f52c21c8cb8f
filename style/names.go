package style

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"sort"
	"strings"
)

// vendorPrefixes are stripped from known property names to get the
// canonical name.
var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-", "-epub-"}

// CanonicalName returns the prefix-normalized name of a property.
// A vendor prefix is removed only if the unprefixed name is a known
// property; custom properties ("--x") are returned unchanged.
// Example:
//    CanonicalName("-webkit-border-radius") => "border-radius"
//    CanonicalName("-webkit-line-clamp")    => "-webkit-line-clamp"
//
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(name, "--") || !strings.HasPrefix(name, "-") {
		return name
	}
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(name, prefix) {
			unprefixed := name[len(prefix):]
			if IsKnownProperty(unprefixed) {
				return unprefixed
			}
			return name
		}
	}
	return name
}

// IsCustomProperty is a predicate for CSS custom properties ("--main-color").
func IsCustomProperty(name string) bool {
	return strings.HasPrefix(name, "--")
}

// IsKnownProperty returns true for property names (canonical form) this
// package has knowledge about.
func IsKnownProperty(name string) bool {
	if _, ok := longhandsOf[name]; ok {
		return true
	}
	if _, ok := shorthandsOf[name]; ok {
		return true
	}
	if _, ok := inheritedProperties[name]; ok {
		return true
	}
	_, ok := otherProperties[name]
	return ok
}

// IsInheritedProperty returns wether the standard behaviour for a property
// is to be inherited from ancestors. Custom properties are always inherited.
func IsInheritedProperty(name string) bool {
	name = CanonicalName(name)
	if IsCustomProperty(name) {
		return true
	}
	_, ok := inheritedProperties[name]
	return ok
}

// IsShorthand returns true if name denotes a shorthand property, i.e. one
// which expands into a set of longhand properties.
func IsShorthand(name string) bool {
	_, ok := longhandsOf[CanonicalName(name)]
	return ok
}

// LonghandsForShorthand returns the longhands a shorthand expands to, or nil
// for a non-shorthand.
func LonghandsForShorthand(name string) []string {
	return longhandsOf[CanonicalName(name)]
}

// ShorthandsForLonghand returns the shorthands a longhand may roll up
// into. The most specific shorthand (the one with fewest longhands) is
// listed first.
// Example:
//    ShorthandsForLonghand("border-top-color") => [ "border-top", "border-color", "border" ]
//
func ShorthandsForLonghand(name string) []string {
	return shorthandsOf[CanonicalName(name)]
}

var longhandsOf = map[string][]string{
	"margin":  {"margin-top", "margin-right", "margin-bottom", "margin-left"},
	"padding": {"padding-top", "padding-right", "padding-bottom", "padding-left"},
	"inset":   {"top", "right", "bottom", "left"},
	"border": {
		"border-top-width", "border-right-width", "border-bottom-width", "border-left-width",
		"border-top-style", "border-right-style", "border-bottom-style", "border-left-style",
		"border-top-color", "border-right-color", "border-bottom-color", "border-left-color",
	},
	"border-width":  {"border-top-width", "border-right-width", "border-bottom-width", "border-left-width"},
	"border-style":  {"border-top-style", "border-right-style", "border-bottom-style", "border-left-style"},
	"border-color":  {"border-top-color", "border-right-color", "border-bottom-color", "border-left-color"},
	"border-top":    {"border-top-width", "border-top-style", "border-top-color"},
	"border-right":  {"border-right-width", "border-right-style", "border-right-color"},
	"border-bottom": {"border-bottom-width", "border-bottom-style", "border-bottom-color"},
	"border-left":   {"border-left-width", "border-left-style", "border-left-color"},
	"border-radius": {
		"border-top-left-radius", "border-top-right-radius",
		"border-bottom-right-radius", "border-bottom-left-radius",
	},
	"background": {
		"background-image", "background-position", "background-size", "background-repeat",
		"background-attachment", "background-origin", "background-clip", "background-color",
	},
	"font": {
		"font-style", "font-variant", "font-weight", "font-stretch",
		"font-size", "line-height", "font-family",
	},
	"list-style":      {"list-style-type", "list-style-position", "list-style-image"},
	"outline":         {"outline-width", "outline-style", "outline-color"},
	"flex":            {"flex-grow", "flex-shrink", "flex-basis"},
	"flex-flow":       {"flex-direction", "flex-wrap"},
	"overflow":        {"overflow-x", "overflow-y"},
	"gap":             {"row-gap", "column-gap"},
	"columns":         {"column-width", "column-count"},
	"column-rule":     {"column-rule-width", "column-rule-style", "column-rule-color"},
	"text-decoration": {"text-decoration-line", "text-decoration-style", "text-decoration-color"},
	"place-items":     {"align-items", "justify-items"},
	"place-content":   {"align-content", "justify-content"},
	"transition": {
		"transition-property", "transition-duration",
		"transition-timing-function", "transition-delay",
	},
	"animation": {
		"animation-name", "animation-duration", "animation-timing-function", "animation-delay",
		"animation-iteration-count", "animation-direction", "animation-fill-mode", "animation-play-state",
	},
}

// shorthandsOf is the reverse of longhandsOf, built at init time.
var shorthandsOf map[string][]string

func init() {
	shorthandsOf = make(map[string][]string, 96)
	for shorthand, longhands := range longhandsOf {
		for _, longhand := range longhands {
			shorthandsOf[longhand] = append(shorthandsOf[longhand], shorthand)
		}
	}
	for _, shorthands := range shorthandsOf {
		sort.Slice(shorthands, func(i, j int) bool {
			li, lj := len(longhandsOf[shorthands[i]]), len(longhandsOf[shorthands[j]])
			if li != lj {
				return li < lj
			}
			return shorthands[i] < shorthands[j]
		})
	}
}

var inheritedProperties = map[string]struct{}{
	"border-collapse": {}, "border-spacing": {}, "caption-side": {}, "color": {},
	"cursor": {}, "direction": {}, "empty-cells": {}, "font": {}, "font-family": {},
	"font-size": {}, "font-style": {}, "font-variant": {}, "font-weight": {},
	"font-stretch": {}, "font-feature-settings": {}, "font-kerning": {},
	"hyphens": {}, "letter-spacing": {}, "line-height": {}, "list-style": {},
	"list-style-image": {}, "list-style-position": {}, "list-style-type": {},
	"orphans": {}, "overflow-wrap": {}, "quotes": {}, "tab-size": {}, "text-align": {},
	"text-align-last": {}, "text-indent": {}, "text-rendering": {}, "text-shadow": {},
	"text-transform": {}, "visibility": {}, "white-space": {}, "widows": {},
	"word-break": {}, "word-spacing": {}, "word-wrap": {}, "writing-mode": {},
	"pointer-events": {}, "caret-color": {}, "speak": {}, "volume": {},
	"image-rendering": {}, "text-size-adjust": {},
}

var otherProperties = map[string]struct{}{
	"display": {}, "position": {}, "float": {}, "clear": {}, "z-index": {},
	"width": {}, "height": {}, "min-width": {}, "min-height": {}, "max-width": {},
	"max-height": {}, "box-sizing": {}, "opacity": {}, "transform": {},
	"transform-origin": {}, "vertical-align": {}, "content": {}, "clip": {},
	"counter-reset": {}, "counter-increment": {}, "box-shadow": {}, "filter": {},
	"appearance": {}, "user-select": {}, "order": {}, "align-self": {},
	"justify-self": {}, "grid-template-columns": {}, "grid-template-rows": {},
	"unicode-bidi": {}, "table-layout": {}, "resize": {}, "will-change": {},
	"flow-into": {}, "flow-from": {}, "mask": {}, "text-overflow": {},
	"object-fit": {}, "aspect-ratio": {}, "isolation": {}, "mix-blend-mode": {},
}
