package style

import (
	"fmt"
	"strings"
)

// KeyValue is a container for a raw property name/value pair.
type KeyValue struct {
	Key   string
	Value string
}

// SplitCompoundProperty splits up a shorthand property into its individual
// components. Returns a slice of key-value pairs representing the
// individual (fine grained) style properties.
// Example:
//    SplitCompoundProperty("padding", "3px 4px")
// will return
//    "padding-top"    => "3px"
//    "padding-right"  => "4px"
//    "padding-bottom" => "3px"
//    "padding-left"   => "4px"
//
// CSS-wide keywords ("inherit", "initial", "unset") are distributed to
// every longhand. For shorthands this function does not know how to
// decompose, an error is returned.
func SplitCompoundProperty(key string, value string) ([]KeyValue, error) {
	key = CanonicalName(key)
	longhands := LonghandsForShorthand(key)
	if longhands == nil {
		return nil, fmt.Errorf("not recognized as compound property: %s", key)
	}
	fields := strings.Fields(value)
	if len(fields) == 1 && isCSSWideKeyword(fields[0]) {
		r := make([]KeyValue, len(longhands))
		for i, l := range longhands {
			r[i] = KeyValue{l, fields[0]}
		}
		return r, nil
	}
	switch key {
	case "margin", "padding", "inset", "border-width", "border-style", "border-color":
		return distribute4(longhands, fields)
	case "border-radius":
		if strings.Contains(value, "/") {
			return nil, fmt.Errorf("elliptic radii not supported for %s", key)
		}
		return distribute4(longhands, fields)
	case "border-top", "border-right", "border-bottom", "border-left", "outline", "column-rule":
		return splitBorderSide(longhands, fields)
	case "border":
		side, err := splitBorderSide([]string{"width", "style", "color"}, fields)
		if err != nil {
			return nil, err
		}
		r := make([]KeyValue, 0, 12)
		for _, kv := range side {
			for _, dir := range fourDirs {
				r = append(r, KeyValue{"border-" + dir + "-" + kv.Key, kv.Value})
			}
		}
		return r, nil
	case "overflow", "gap", "place-items", "place-content":
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("expecting 1-2 values for %s", key)
		}
		second := fields[0]
		if len(fields) == 2 {
			second = fields[1]
		}
		return []KeyValue{{longhands[0], fields[0]}, {longhands[1], second}}, nil
	}
	return nil, fmt.Errorf("cannot decompose compound property: %s", key)
}

func isCSSWideKeyword(s string) bool {
	switch strings.ToLower(s) {
	case "inherit", "initial", "unset", "revert":
		return true
	}
	return false
}

// CSS logic to distribute individual values from 4-value shortcuts is as
// follows: https://www.w3schools.com/css/css_border.asp
func distribute4(longhands []string, fields []string) ([]KeyValue, error) {
	l := len(fields)
	if l == 0 || l > 4 || len(longhands) != 4 {
		return nil, fmt.Errorf("expecting 1-4 values for %v", longhands)
	}
	vals := [4]string{fields[0], fields[0], fields[0], fields[0]}
	switch l {
	case 2:
		vals[1], vals[3] = fields[1], fields[1]
	case 3:
		vals[1], vals[2], vals[3] = fields[1], fields[2], fields[1]
	case 4:
		copy(vals[:], fields)
	}
	r := make([]KeyValue, 4)
	for i := range r {
		r[i] = KeyValue{longhands[i], vals[i]}
	}
	return r, nil
}

// splitBorderSide assigns the tokens of e.g. "1px solid red" to the
// width, style and color longhands (given in this order).
// Omitted components are set to "initial".
func splitBorderSide(longhands []string, fields []string) ([]KeyValue, error) {
	if len(fields) == 0 || len(fields) > 3 {
		return nil, fmt.Errorf("expecting 1-3 values for %v", longhands)
	}
	var width, style, color string
	for _, f := range fields {
		switch {
		case isLineStyle(f) && style == "":
			style = f
		case isLineWidth(f) && width == "":
			width = f
		case color == "":
			color = f
		default:
			return nil, fmt.Errorf("ambiguous value %q for %v", f, longhands)
		}
	}
	vals := [3]string{width, style, color}
	r := make([]KeyValue, 3)
	for i, l := range longhands {
		if vals[i] == "" {
			vals[i] = "initial"
		}
		r[i] = KeyValue{l, vals[i]}
	}
	return r, nil
}

func isLineStyle(s string) bool {
	switch strings.ToLower(s) {
	case "none", "hidden", "dotted", "dashed", "solid", "double",
		"groove", "ridge", "inset", "outset":
		return true
	}
	return false
}

func isLineWidth(s string) bool {
	switch strings.ToLower(s) {
	case "thin", "medium", "thick":
		return true
	}
	return len(s) > 0 && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

var fourDirs = [4]string{"top", "right", "bottom", "left"}
