package internal

import (
	"strings"
	"testing"
)

func TestNewOpaqueTokenShape(t *testing.T) {
	tok, err := NewOpaqueToken(32)
	if err != nil {
		t.Fatalf("NewOpaqueToken failed: %v", err)
	}
	// 32 bytes -> 43 base64url chars, no padding.
	if len(tok) != 43 {
		t.Fatalf("token length = %d, want 43", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token is not url-safe: %q", tok)
	}
}

func TestNewOpaqueTokenDefaultsLength(t *testing.T) {
	tok, err := NewOpaqueToken(0)
	if err != nil {
		t.Fatalf("NewOpaqueToken failed: %v", err)
	}
	if len(tok) != 43 {
		t.Fatalf("default token length = %d, want 43", len(tok))
	}
}

func TestNewOpaqueTokenUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		tok, err := NewOpaqueToken(32)
		if err != nil {
			t.Fatalf("NewOpaqueToken failed: %v", err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}
