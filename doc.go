// Package tokenroll implements rolling refresh-token rotation on top of
// Redis.
//
// Refresh tokens are opaque random strings handed to clients. The server
// keeps a small JSON record per token (subject, validity flag, expiry) in
// Redis under a TTL, so abandoned sessions reap themselves. Presenting a
// refresh token atomically invalidates its record and, when the record was
// still live, mints a fresh access/refresh pair. A token that arrives
// already invalidated is a replay of a rotated credential and is reported
// as theft.
//
// The entry point is the Builder:
//
//	engine, err := tokenroll.New().
//		WithRedis(client).
//		WithConfig(cfg).
//		Build()
//
// The Engine exposes Issue, Rotate, Validate, and Revoke. All operations
// are safe for concurrent use. The invalidate-and-fetch step runs as a
// single server-side script, so concurrent rotations of the same token
// resolve to exactly one winner regardless of how many processes share the
// store.
package tokenroll
