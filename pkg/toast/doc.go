// Package toast provides short-lived, stacked feedback notifications.
//
// A Notifier draws notifications into a dom.Surface and dismisses each one
// automatically after a delay that depends on its severity:
//
//	error, warning  5s
//	info, success   3s
//
// Notifications are appended to a container element in call order, so the
// oldest visible notification is always first. The container is created
// the first time it is needed.
//
// # Usage
//
// In a session event handler:
//
//	func (s *Session) onCopied(ok bool) {
//	    if !ok {
//	        s.toasts.Error("Failed to copy to clipboard")
//	        return
//	    }
//	    s.toasts.Success("Copied to clipboard!")
//	}
//
// Notify returns a Handle that can dismiss the notification early:
//
//	h := s.toasts.Info("Analyzing...")
//	// ...
//	s.toasts.Dismiss(h)
//
// # Failure Semantics
//
// Notifications are feedback only, so the Notifier never fails its caller.
// Rendering errors are logged and swallowed; the notification is still
// tracked and its timer still cleans it up.
//
// A Notifier is not safe for concurrent use. It must be driven from the
// same event loop its Scheduler dispatches onto.
package toast
