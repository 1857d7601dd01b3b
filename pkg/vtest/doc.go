// Package vtest provides testing helpers for code that draws on a dom.Surface.
//
// A Harness pairs a fresh Document with a Manual scheduler so timing can be
// driven explicitly:
//
//	func TestSaveButton(t *testing.T) {
//	    h := vtest.New()
//	    h.Button("save")
//
//	    ctrl := busy.New(h.Doc, h.Clock)
//	    ctrl.Arm("save")
//	    vtest.ExpectClass(t, h.Doc, "save", "loading")
//
//	    h.Clock.Advance(30 * time.Second)
//	    vtest.ExpectNoClass(t, h.Doc, "save", "loading")
//	}
//
// # Render Assertions
//
// Assert on rendered HTML output:
//
//	vtest.ExpectContains(t, h.Doc.HTML(), "Copied to clipboard!")
//	vtest.ExpectOrder(t, h.Doc.HTML(), ">first<", ">second<")
package vtest
