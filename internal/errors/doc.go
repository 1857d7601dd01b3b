// Package errors provides structured, user-facing errors for metalens.
//
// Every failure that can reach a person (a toast in the browser, a line
// in the CLI) carries a registered code. The code maps to a category and
// a message template, so the same failure reads the same everywhere.
//
// # Error Categories
//
//   - fetch: the target page could not be retrieved
//   - validation: user input was rejected
//   - storage: the analysis database failed
//   - config: configuration could not be loaded or is invalid
//   - export: a report could not be rendered or uploaded
//
// # Usage
//
//	err := errors.New(errors.CodeHTTPStatus).Args(404, "Not Found")
//	fmt.Println(err.Error())
//	// Output: M004: HTTP error 404: Not Found
//
//	errors.UserMessage(err)
//	// Output: HTTP error 404: Not Found
package errors
