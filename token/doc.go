// Package token persists refresh-token records in Redis.
//
// Each opaque refresh token maps to one JSON record under the key
// prefix:token:suffix. The record carries the subject the token was issued
// to, a one-way validity flag, and a logical expiry; the Redis key TTL is
// a reaping backstop only and never extends a token's life.
//
// InvalidateAndFetchPrevious is the primitive rotation is built on: a
// single server-side script that reads the record, flips it invalid while
// preserving the remaining TTL, and returns the prior state. Concurrent
// callers on the same token therefore serialize inside Redis and exactly
// one of them observes the record as still valid.
package token
