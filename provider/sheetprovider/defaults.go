package sheetprovider

import (
	"sort"
	"strings"

	"github.com/npillmayer/nodestyles/style"
)

// Initial values of properties, grouped the way layout code looks at them.
// A value of "" means: no initial value known, property is not reported
// unless declared.
var initialGroups = map[string]map[string]string{
	"margins": {
		"margin-top":    "0",
		"margin-left":   "0",
		"margin-right":  "0",
		"margin-bottom": "0",
	},
	"padding": {
		"padding-top":    "0",
		"padding-left":   "0",
		"padding-right":  "0",
		"padding-bottom": "0",
	},
	"border": {
		"border-top-color":           "currentcolor",
		"border-left-color":          "currentcolor",
		"border-right-color":         "currentcolor",
		"border-bottom-color":        "currentcolor",
		"border-top-width":           "medium",
		"border-left-width":          "medium",
		"border-right-width":         "medium",
		"border-bottom-width":        "medium",
		"border-top-style":           "none",
		"border-left-style":          "none",
		"border-right-style":         "none",
		"border-bottom-style":        "none",
		"border-top-left-radius":     "0",
		"border-top-right-radius":    "0",
		"border-bottom-left-radius":  "0",
		"border-bottom-right-radius": "0",
	},
	"dimension": {
		"width":      "auto",
		"height":     "auto",
		"min-width":  "auto",
		"min-height": "auto",
		"max-width":  "none",
		"max-height": "none",
		"top":        "auto",
		"right":      "auto",
		"bottom":     "auto",
		"left":       "auto",
	},
	"display": {
		"display":    "inline",
		"float":      "none",
		"visibility": "visible",
		"position":   "static",
		"overflow-x": "visible",
		"overflow-y": "visible",
	},
	"color": {
		"color":            "canvastext",
		"background-color": "transparent",
		"opacity":          "1",
	},
	"font": {
		"font-family": "serif",
		"font-size":   "medium",
		"font-style":  "normal",
		"font-weight": "normal",
		"line-height": "normal",
	},
	"text": {
		"direction":      "ltr",
		"white-space":    "normal",
		"word-spacing":   "normal",
		"letter-spacing": "normal",
		"word-break":     "normal",
		"overflow-wrap":  "normal",
		"hyphens":        "manual",
		"text-align":     "start",
		"text-indent":    "0",
	},
}

// initialValues is the union of the initial groups.
var initialValues map[string]string

// initialNames lists the keys of initialValues, sorted.
var initialNames []string

func init() {
	initialValues = make(map[string]string)
	for _, group := range initialGroups {
		for k, v := range group {
			initialValues[k] = v
		}
	}
	for k := range initialValues {
		initialNames = append(initialNames, k)
	}
	sort.Strings(initialNames)
}

// InitialValue returns the initial value of a property, if known.
func InitialValue(name string) (string, bool) {
	v, ok := initialValues[style.CanonicalName(name)]
	return v, ok
}

// displayForTag is the user-agent `display` value for HTML elements.
var displayForTag = map[string]string{
	"head": "none", "script": "none", "style": "none", "title": "none",
	"meta": "none", "link": "none", "template": "none",
	"html": "block", "body": "block", "div": "block", "p": "block",
	"aside": "block", "section": "block", "article": "block", "nav": "block",
	"header": "block", "footer": "block", "main": "block", "address": "block",
	"blockquote": "block", "figure": "block", "form": "block", "hr": "block",
	"h1": "block", "h2": "block", "h3": "block", "h4": "block", "h5": "block", "h6": "block",
	"ol": "block", "ul": "block", "pre": "block", "dl": "block", "dd": "block", "dt": "block",
	"li":    "list-item",
	"table": "table", "tr": "table-row", "td": "table-cell", "th": "table-cell",
	"thead": "table-header-group", "tbody": "table-row-group", "tfoot": "table-footer-group",
}

// DisplayForTag returns the user-agent `display` value for an HTML element.
func DisplayForTag(tag string) string {
	if d, ok := displayForTag[tag]; ok {
		return d
	}
	return "inline"
}

// UserAgentStyleSheet returns the text of the default user-agent style
// sheet. Elements with the same display value share a rule.
func UserAgentStyleSheet() string {
	byDisplay := make(map[string][]string)
	for tag, d := range displayForTag {
		byDisplay[d] = append(byDisplay[d], tag)
	}
	displays := make([]string, 0, len(byDisplay))
	for d := range byDisplay {
		displays = append(displays, d)
	}
	sort.Strings(displays)
	var b strings.Builder
	for _, d := range displays {
		tags := byDisplay[d]
		sort.Strings(tags)
		b.WriteString(strings.Join(tags, ", "))
		b.WriteString(" { display: " + d + " }\n")
	}
	b.WriteString("body { margin: 8px }\n")
	b.WriteString("p { margin-top: 1em; margin-bottom: 1em }\n")
	b.WriteString("h1 { font-size: 2em; font-weight: bold; margin-top: 0.67em; margin-bottom: 0.67em }\n")
	b.WriteString("h2 { font-size: 1.5em; font-weight: bold }\n")
	b.WriteString("b, strong, th { font-weight: bold }\n")
	b.WriteString("i, em { font-style: italic }\n")
	b.WriteString("pre { white-space: pre; font-family: monospace }\n")
	b.WriteString("a:link { color: blue }\n")
	b.WriteString("a:hover { color: red }\n")
	b.WriteString("p::first-line { color: inherit }\n")
	return b.String()
}
