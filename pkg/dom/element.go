package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a node in the page model.
type Element struct {
	Tag  string
	ID   string
	text string

	classes  []string
	attrKeys []string
	attrs    map[string]string
	children []*Element
	parent   *Element
	doc      *Document
}

// NewElement creates a detached element.
func NewElement(tag, id string) *Element {
	return &Element{Tag: tag, ID: id, attrs: make(map[string]string)}
}

// Text returns the element's own text content.
func (e *Element) Text() string { return e.text }

// Classes returns a copy of the element's classes in insertion order.
func (e *Element) Classes() []string { return slices.Clone(e.classes) }

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool { return slices.Contains(e.classes, c) }

// Attr returns the value of attribute key.
func (e *Element) Attr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Children returns the element's children in order.
func (e *Element) Children() []*Element { return slices.Clone(e.children) }

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element { return e.parent }

// Attached reports whether the element is part of a document tree.
func (e *Element) Attached() bool { return e.doc != nil }

// AddClass adds classes that are not already present.
func (e *Element) AddClass(classes ...string) *Element {
	for _, c := range classes {
		for _, f := range strings.Fields(c) {
			if !e.HasClass(f) {
				e.classes = append(e.classes, f)
				e.record(Patch{Op: PatchAddClass, ID: e.ID, Value: f})
			}
		}
	}
	return e
}

// RemoveClass removes classes; absent classes are ignored.
func (e *Element) RemoveClass(classes ...string) *Element {
	for _, c := range classes {
		if i := slices.Index(e.classes, c); i >= 0 {
			e.classes = slices.Delete(e.classes, i, i+1)
			e.record(Patch{Op: PatchRemoveClass, ID: e.ID, Value: c})
		}
	}
	return e
}

// SetAttr sets an attribute. Use AddClass for "class" and the ID field for "id".
func (e *Element) SetAttr(key, value string) *Element {
	if old, ok := e.attrs[key]; ok && old == value {
		return e
	} else if !ok {
		e.attrKeys = append(e.attrKeys, key)
	}
	e.attrs[key] = value
	e.record(Patch{Op: PatchSetAttr, ID: e.ID, Key: key, Value: value})
	return e
}

// RemoveAttr removes an attribute.
func (e *Element) RemoveAttr(key string) *Element {
	if _, ok := e.attrs[key]; !ok {
		return e
	}
	delete(e.attrs, key)
	e.attrKeys = slices.DeleteFunc(e.attrKeys, func(k string) bool { return k == key })
	e.record(Patch{Op: PatchRemoveAttr, ID: e.ID, Key: key})
	return e
}

// SetText replaces the element's text content.
func (e *Element) SetText(text string) *Element {
	if e.text == text {
		return e
	}
	e.text = text
	e.record(Patch{Op: PatchSetText, ID: e.ID, Value: text})
	return e
}

// AppendChild appends child to a detached element. Use Document.Append
// for attached parents so the insertion is indexed and recorded.
func (e *Element) AppendChild(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
		e.children = append(e.children, c)
	}
	return e
}

// HTML renders the element and its subtree.
func (e *Element) HTML() string {
	var b strings.Builder
	_ = html.Render(&b, e.node())
	return b.String()
}

// node converts the subtree to an x/net/html node so rendering and
// escaping follow the HTML5 serializer.
func (e *Element) node() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.Tag,
		DataAtom: atom.Lookup([]byte(e.Tag)),
	}
	if e.ID != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: e.ID})
	}
	if len(e.classes) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: strings.Join(e.classes, " ")})
	}
	for _, k := range e.attrKeys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: e.attrs[k]})
	}
	if e.text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.text})
	}
	for _, c := range e.children {
		n.AppendChild(c.node())
	}
	return n
}

func (e *Element) record(p Patch) {
	if e.doc == nil || e.ID == "" {
		return
	}
	e.doc.pending = append(e.doc.pending, p)
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}
