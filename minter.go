package tokenroll

import (
	"context"
	"fmt"
	"time"

	"github.com/ethr-lab/tokenroll/internal"
	"github.com/ethr-lab/tokenroll/jwt"
)

// defaultMinter is the built-in Minter: JWT access tokens via jwt.Manager,
// opaque random refresh tokens via crypto/rand.
type defaultMinter struct {
	jwt        *jwt.Manager
	refreshTTL time.Duration
	tokenBytes int
}

func newDefaultMinter(manager *jwt.Manager, tokenCfg TokenConfig) *defaultMinter {
	return &defaultMinter{
		jwt:        manager,
		refreshTTL: tokenCfg.RefreshTTL,
		tokenBytes: tokenCfg.RefreshTokenBytes,
	}
}

func (m *defaultMinter) MintAccessToken(_ context.Context, subjectID string) (string, error) {
	signed, err := m.jwt.CreateAccess(subjectID)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (m *defaultMinter) MintRefreshToken(_ context.Context, _ string) (RefreshIssue, error) {
	tok, err := internal.NewOpaqueToken(m.tokenBytes)
	if err != nil {
		return RefreshIssue{}, fmt.Errorf("draw refresh token: %w", err)
	}
	return RefreshIssue{
		Token:     tok,
		ExpiresAt: time.Now().Add(m.refreshTTL).UTC(),
	}, nil
}
