package vtest

import (
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/sched"
)

// Harness bundles a document and a manual clock.
type Harness struct {
	Doc   *dom.Document
	Clock *sched.Manual
}

// New creates a Harness with an empty document and a clock at the Unix epoch.
func New() *Harness {
	return &Harness{
		Doc:   dom.NewDocument(),
		Clock: sched.NewManual(time.Time{}),
	}
}

// Button appends a submit button with the given ID to the body and
// flushes the insertion patch.
func (h *Harness) Button(id string) *dom.Element {
	el := h.Doc.Create("button", id).SetAttr("type", "submit")
	if err := h.Doc.Append(dom.BodyID, el); err != nil {
		panic(err)
	}
	h.Doc.Flush()
	return el
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, doc.HTML(), "Welcome")
func ExpectContains(t testing.TB, html, expected string) {
	t.Helper()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, html, unexpected string) {
	t.Helper()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectOrder asserts that each substring appears after the previous one.
func ExpectOrder(t testing.TB, html string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(html[pos:], p)
		if i < 0 {
			t.Errorf("expected %q after offset %d, got:\n%s", p, pos, truncate(html, 500))
			return
		}
		pos += i + len(p)
	}
}

// ExpectClass asserts that the element with the given ID carries class.
func ExpectClass(t testing.TB, s dom.Surface, id, class string) {
	t.Helper()
	el, ok := s.Lookup(id)
	if !ok {
		t.Errorf("element %q not found", id)
		return
	}
	if !el.HasClass(class) {
		t.Errorf("element %q: expected class %q, got %v", id, class, el.Classes())
	}
}

// ExpectNoClass asserts that the element with the given ID lacks class.
func ExpectNoClass(t testing.TB, s dom.Surface, id, class string) {
	t.Helper()
	el, ok := s.Lookup(id)
	if !ok {
		t.Errorf("element %q not found", id)
		return
	}
	if el.HasClass(class) {
		t.Errorf("element %q: unexpected class %q", id, class)
	}
}

// ExpectAttribute asserts that the element with the given ID has attr set to value.
func ExpectAttribute(t testing.TB, s dom.Surface, id, attr, value string) {
	t.Helper()
	el, ok := s.Lookup(id)
	if !ok {
		t.Errorf("element %q not found", id)
		return
	}
	got, ok := el.Attr(attr)
	if !ok || got != value {
		t.Errorf("element %q: attribute %s = %q (set=%v), want %q", id, attr, got, ok, value)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
