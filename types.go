package tokenroll

import (
	"context"
	"time"
)

// TokenPair is the result of Issue and Rotate: a signed access token plus
// the opaque refresh token that replaces whatever the caller presented.
type TokenPair struct {
	AccessToken  string
	RefreshToken string

	// RefreshExpiresAt is the logical expiry of the refresh token. The
	// access token carries its own exp claim.
	RefreshExpiresAt time.Time
}

// RefreshExpiresIn returns the remaining refresh lifetime in whole
// seconds, floored at zero. Convenience for HTTP response bodies.
func (p *TokenPair) RefreshExpiresIn(now time.Time) int64 {
	d := p.RefreshExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// RefreshIssue is a freshly minted opaque refresh token together with its
// expiry.
type RefreshIssue struct {
	Token     string
	ExpiresAt time.Time
}

// Minter produces credentials. The engine owns storage and rotation
// semantics; the Minter owns token formats. The built-in implementation
// signs JWTs for access and draws random base64url strings for refresh,
// but anything satisfying this interface can be plugged in via the
// builder.
type Minter interface {
	MintAccessToken(ctx context.Context, subjectID string) (string, error)
	MintRefreshToken(ctx context.Context, subjectID string) (RefreshIssue, error)
}
