package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultOpaqueTokenBytes = 32

// NewOpaqueToken draws byteLen bytes from crypto/rand and returns them
// base64url-encoded without padding. The result is the full refresh token
// handed to clients; it carries no structure and is never decoded.
func NewOpaqueToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		byteLen = defaultOpaqueTokenBytes
	}

	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random source failed: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
