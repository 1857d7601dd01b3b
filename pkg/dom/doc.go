// Package dom is the server-side page model the feedback components draw on.
//
// A Document is a tree of Elements rooted at a body element. Elements with
// an ID are indexed and can be addressed through the Surface interface.
// Every mutation of an attached element is recorded as a Patch; the live
// session drains them with Flush and ships them to the browser, which
// replays them against the real DOM.
//
// Detached elements (returned by Create and not yet appended) can be built
// up freely with the Element methods. Nothing is recorded for them until
// they are inserted, at which point a single InsertNode patch carries the
// rendered subtree.
//
// A Document is not safe for concurrent use. The session confines each
// document to its event loop.
package dom
