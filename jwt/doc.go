// Package jwt signs and verifies the short-lived access tokens paired with
// tokenroll's opaque refresh tokens.
//
// Access tokens carry only registered claims: sub identifies the subject,
// jti is a fresh UUID per token, plus iss/aud/iat/exp. Rotation state
// lives entirely in the refresh record; nothing here is consulted when a
// refresh token is judged.
package jwt
