// Package internal contains helper utilities that are intentionally private
// to tokenroll, currently secure random token generation.
//
// # Sub-packages
//
//   - audit — async event dispatch (Event model + Sink implementations)
//   - flows — pure-function flow orchestrators for Engine operations
//
// # What this package must NOT do
//
//   - Export types that appear in the public tokenroll API.
//   - Be imported by any package outside the tokenroll module.
package internal
