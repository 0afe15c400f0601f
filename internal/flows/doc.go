// Package flows contains pure-function orchestrators for Engine
// operations.
//
// Each flow function (RunRotate, RunIssue, RunValidate) accepts a typed
// dependency struct and returns a result value without side-effects beyond
// those dependencies. This keeps the Engine type thin and lets the state
// machine be unit-tested exhaustively against fake stores and minters.
//
// # Architecture boundaries
//
// Flow functions coordinate the record store and the credential minter.
// They do NOT own any of these resources — ownership stays with the
// Engine, as does mapping failure kinds onto public errors, metrics, and
// audit events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tokenroll (to avoid import cycles).
//   - Perform I/O except through dependency interfaces.
package flows
