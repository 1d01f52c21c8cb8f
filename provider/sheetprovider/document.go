package sheetprovider

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/npillmayer/nodestyles/style"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an HTML parse tree with node identities for its elements.
// Elements are numbered in document order, starting at 1.
type Document struct {
	root     *html.Node
	frame    string
	elements []*Element
	byNode   map[*html.Node]*Element
}

// Element is an element node of a Document. It implements style.Node.
type Element struct {
	doc    *Document
	id     style.NodeID
	h      *html.Node
	parent *Element
}

// ParseDocument parses an HTML document. frameID names the frame the
// document is shown in.
func ParseDocument(r io.Reader, frameID string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return NewDocument(root, frameID), nil
}

// NewDocument wraps an HTML parse tree.
func NewDocument(root *html.Node, frameID string) *Document {
	doc := &Document{
		root:   root,
		frame:  frameID,
		byNode: make(map[*html.Node]*Element),
	}
	doc.number(root, nil)
	tracer().Debugf("document in frame %q has %d elements", frameID, len(doc.elements))
	return doc
}

func (doc *Document) number(h *html.Node, parent *Element) {
	if h.Type == html.ElementNode {
		el := &Element{doc: doc, id: style.NodeID(len(doc.elements) + 1), h: h, parent: parent}
		doc.elements = append(doc.elements, el)
		doc.byNode[h] = el
		parent = el
	}
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		doc.number(ch, parent)
	}
}

// Root returns the HTML parse tree.
func (doc *Document) Root() *html.Node {
	return doc.root
}

// Element returns the element with a given ID.
func (doc *Document) Element(id style.NodeID) (*Element, bool) {
	if id < 1 || int(id) > len(doc.elements) {
		return nil, false
	}
	return doc.elements[id-1], true
}

// Elements returns all elements in document order.
func (doc *Document) Elements() []*Element {
	return doc.elements
}

// Query returns the first element matching a selector.
func (doc *Document) Query(selector string) (*Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}
	h := cascadia.Query(doc.root, sel)
	if h == nil {
		return nil, fmt.Errorf("%w: no element matches %q", ErrUnknownNode, selector)
	}
	return doc.byNode[h], nil
}

// StyleElements returns the contents of the <style> elements of <head>
// and <body>, in document order.
func (doc *Document) StyleElements() []string {
	var styles []string
	for _, a := range []atom.Atom{atom.Head, atom.Body} {
		container := findElement(a, doc.root)
		if container == nil {
			continue
		}
		for ch := container.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.DataAtom == atom.Style && ch.FirstChild != nil {
				styles = append(styles, ch.FirstChild.Data)
			}
		}
	}
	return styles
}

func findElement(a atom.Atom, h *html.Node) *html.Node {
	if h == nil {
		return nil
	}
	if h.DataAtom == a {
		return h
	}
	for ch := h.FirstChild; ch != nil; ch = ch.NextSibling {
		if r := findElement(a, ch); r != nil {
			return r
		}
	}
	return nil
}

// --- Element ---------------------------------------------------------------

// NodeID is part of interface style.Node.
func (el *Element) NodeID() style.NodeID { return el.id }

// ParentNode is part of interface style.Node.
func (el *Element) ParentNode() style.Node {
	if el.parent == nil {
		return nil
	}
	return el.parent
}

// FrameID is part of interface style.Node.
func (el *Element) FrameID() string { return el.doc.frame }

// HTMLNode returns the underlying node of the parse tree.
func (el *Element) HTMLNode() *html.Node { return el.h }

// TagName returns the lowercase tag name.
func (el *Element) TagName() string { return el.h.Data }

// Attribute returns the value of an attribute.
func (el *Element) Attribute(key string) (string, bool) {
	for _, a := range el.h.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (el *Element) setAttribute(key, value string) {
	for i, a := range el.h.Attr {
		if a.Namespace == "" && a.Key == key {
			el.h.Attr[i].Val = value
			return
		}
	}
	el.h.Attr = append(el.h.Attr, html.Attribute{Key: key, Val: value})
}

// AppropriateSelector returns a selector for the element: its ID, if
// present, otherwise its tag name and classes.
func (el *Element) AppropriateSelector() string {
	if id, ok := el.Attribute("id"); ok && id != "" {
		return "#" + id
	}
	sel := el.h.Data
	if class, ok := el.Attribute("class"); ok {
		for _, c := range strings.Fields(class) {
			sel += "." + c
		}
	}
	return sel
}

func (el *Element) String() string {
	return fmt.Sprintf("<%s>#%d", el.h.Data, el.id)
}
