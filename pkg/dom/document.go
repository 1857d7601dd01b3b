package dom

import (
	"errors"
	"fmt"
	"slices"
)

// BodyID is the ID of every document's root element.
const BodyID = "body"

var (
	// ErrNotFound is returned when no attached element has the given ID.
	ErrNotFound = errors.New("dom: element not found")

	// ErrDuplicateID is returned when inserting an element whose ID is taken.
	ErrDuplicateID = errors.New("dom: duplicate element id")

	// ErrAttached is returned when appending an element that already has a parent document.
	ErrAttached = errors.New("dom: element already attached")
)

// Surface is the rendering surface the feedback components draw on.
type Surface interface {
	// Body returns the root element.
	Body() *Element

	// Lookup returns the attached element with the given ID.
	Lookup(id string) (*Element, bool)

	// Create returns a new detached element.
	Create(tag, id string) *Element

	// Append inserts el as the last child of parentID.
	Append(parentID string, el *Element) error

	// Remove detaches the element and its subtree.
	Remove(id string) error

	SetAttr(id, key, value string) error
	RemoveAttr(id, key string) error
	AddClass(id string, classes ...string) error
	RemoveClass(id string, classes ...string) error
	SetText(id, text string) error
}

// Document is the in-memory Surface implementation.
type Document struct {
	body    *Element
	index   map[string]*Element
	pending []Patch
}

var _ Surface = (*Document)(nil)

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{index: make(map[string]*Element)}
	d.body = NewElement("body", BodyID)
	d.body.doc = d
	d.index[BodyID] = d.body
	return d
}

// Body implements Surface.
func (d *Document) Body() *Element { return d.body }

// Lookup implements Surface.
func (d *Document) Lookup(id string) (*Element, bool) {
	el, ok := d.index[id]
	return el, ok
}

// Create implements Surface.
func (d *Document) Create(tag, id string) *Element {
	return NewElement(tag, id)
}

// Append implements Surface.
func (d *Document) Append(parentID string, el *Element) error {
	parent, ok := d.index[parentID]
	if !ok {
		return fmt.Errorf("append to %q: %w", parentID, ErrNotFound)
	}
	if el.doc != nil {
		return fmt.Errorf("append %q: %w", el.ID, ErrAttached)
	}

	var dup string
	el.walk(func(n *Element) {
		if n.ID == "" || dup != "" {
			return
		}
		if _, taken := d.index[n.ID]; taken {
			dup = n.ID
		}
	})
	if dup != "" {
		return fmt.Errorf("append %q: %w", dup, ErrDuplicateID)
	}

	el.parent = parent
	parent.children = append(parent.children, el)
	el.walk(func(n *Element) {
		n.doc = d
		if n.ID != "" {
			d.index[n.ID] = n
		}
	})

	if parent.ID != "" {
		d.pending = append(d.pending, Patch{
			Op:       PatchInsertNode,
			ID:       el.ID,
			ParentID: parent.ID,
			Index:    len(parent.children) - 1,
			HTML:     el.HTML(),
		})
	}
	return nil
}

// Remove implements Surface. The body cannot be removed.
func (d *Document) Remove(id string) error {
	el, ok := d.index[id]
	if !ok || el == d.body {
		return fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	if p := el.parent; p != nil {
		p.children = slices.DeleteFunc(p.children, func(c *Element) bool { return c == el })
	}
	el.parent = nil
	el.walk(func(n *Element) {
		n.doc = nil
		if n.ID != "" {
			delete(d.index, n.ID)
		}
	})
	d.pending = append(d.pending, Patch{Op: PatchRemoveNode, ID: id})
	return nil
}

// SetAttr implements Surface.
func (d *Document) SetAttr(id, key, value string) error {
	return d.with(id, func(el *Element) { el.SetAttr(key, value) })
}

// RemoveAttr implements Surface.
func (d *Document) RemoveAttr(id, key string) error {
	return d.with(id, func(el *Element) { el.RemoveAttr(key) })
}

// AddClass implements Surface.
func (d *Document) AddClass(id string, classes ...string) error {
	return d.with(id, func(el *Element) { el.AddClass(classes...) })
}

// RemoveClass implements Surface.
func (d *Document) RemoveClass(id string, classes ...string) error {
	return d.with(id, func(el *Element) { el.RemoveClass(classes...) })
}

// SetText implements Surface.
func (d *Document) SetText(id, text string) error {
	return d.with(id, func(el *Element) { el.SetText(text) })
}

// Flush returns and clears the patches recorded since the last Flush.
func (d *Document) Flush() []Patch {
	p := d.pending
	d.pending = nil
	return p
}

// PendingPatches returns the number of unflushed patches.
func (d *Document) PendingPatches() int { return len(d.pending) }

// HTML renders the whole document body.
func (d *Document) HTML() string { return d.body.HTML() }

func (d *Document) with(id string, fn func(*Element)) error {
	el, ok := d.index[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	fn(el)
	return nil
}
