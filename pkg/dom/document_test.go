package dom

import (
	"errors"
	"strings"
	"testing"
)

func TestAppendAndLookup(t *testing.T) {
	d := NewDocument()

	list := d.Create("ul", "list")
	list.AppendChild(NewElement("li", "first").SetText("a"))
	if err := d.Append(BodyID, list); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, ok := d.Lookup("first"); !ok {
		t.Error("nested child with ID should be indexed")
	}
	if !list.Attached() {
		t.Error("appended element should be attached")
	}

	patches := d.Flush()
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d", len(patches))
	}
	p := patches[0]
	if p.Op != PatchInsertNode || p.ParentID != BodyID || p.ID != "list" {
		t.Errorf("unexpected patch %+v", p)
	}
	if !strings.Contains(p.HTML, `<li id="first">a</li>`) {
		t.Errorf("insert patch HTML missing child: %s", p.HTML)
	}
	if d.PendingPatches() != 0 {
		t.Error("Flush should clear pending patches")
	}
}

func TestAppendErrors(t *testing.T) {
	d := NewDocument()
	if err := d.Append("missing", d.Create("div", "x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parent: got %v, want ErrNotFound", err)
	}

	if err := d.Append(BodyID, d.Create("div", "x")); err != nil {
		t.Fatal(err)
	}
	if err := d.Append(BodyID, d.Create("div", "x")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate: got %v, want ErrDuplicateID", err)
	}

	el, _ := d.Lookup("x")
	if err := d.Append(BodyID, el); !errors.Is(err, ErrAttached) {
		t.Errorf("reattach: got %v, want ErrAttached", err)
	}
}

func TestRemove(t *testing.T) {
	d := NewDocument()
	box := d.Create("div", "box").AppendChild(NewElement("span", "inner"))
	if err := d.Append(BodyID, box); err != nil {
		t.Fatal(err)
	}
	d.Flush()

	if err := d.Remove("box"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := d.Lookup("inner"); ok {
		t.Error("removed subtree should be unindexed")
	}
	if len(d.Body().Children()) != 0 {
		t.Error("body should have no children")
	}
	if err := d.Remove("box"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: got %v, want ErrNotFound", err)
	}
	if err := d.Remove(BodyID); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing body: got %v, want ErrNotFound", err)
	}

	patches := d.Flush()
	if len(patches) != 1 || patches[0].Op != PatchRemoveNode {
		t.Errorf("unexpected patches %+v", patches)
	}

	// Mutating a detached element records nothing.
	box.AddClass("gone")
	if d.PendingPatches() != 0 {
		t.Error("detached mutation recorded a patch")
	}
}

func TestClassAndAttrPatches(t *testing.T) {
	d := NewDocument()
	if err := d.Append(BodyID, d.Create("button", "go")); err != nil {
		t.Fatal(err)
	}
	d.Flush()

	_ = d.AddClass("go", "loading")
	_ = d.AddClass("go", "loading")
	_ = d.SetAttr("go", "disabled", "")
	_ = d.RemoveClass("go", "loading")
	_ = d.RemoveClass("go", "loading")
	_ = d.RemoveAttr("go", "disabled")

	ops := []PatchOp{}
	for _, p := range d.Flush() {
		ops = append(ops, p.Op)
	}
	want := []PatchOp{PatchAddClass, PatchSetAttr, PatchRemoveClass, PatchRemoveAttr}
	if len(ops) != len(want) {
		t.Fatalf("ops: got %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d]: got %v, want %v", i, ops[i], want[i])
		}
	}
	if err := d.SetText("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetText on missing: got %v", err)
	}
}

func TestHTMLEscapes(t *testing.T) {
	el := NewElement("div", "t").AddClass("toast text-bg-info").SetText(`<script>alert("x")</script>`)
	out := el.HTML()

	if strings.Contains(out, "<script>") {
		t.Errorf("text was not escaped: %s", out)
	}
	if !strings.Contains(out, `class="toast text-bg-info"`) {
		t.Errorf("classes not rendered: %s", out)
	}
}

func TestPatchOpText(t *testing.T) {
	b, err := PatchSetAttr.MarshalText()
	if err != nil || string(b) != "setAttr" {
		t.Fatalf("MarshalText: %q, %v", b, err)
	}
	var op PatchOp
	if err := op.UnmarshalText([]byte("removeClass")); err != nil || op != PatchRemoveClass {
		t.Errorf("UnmarshalText: %v, %v", op, err)
	}
	if err := op.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown op")
	}
}
