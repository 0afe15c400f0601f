package tokenroll

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero refresh ttl", func(c *Config) { c.Token.RefreshTTL = 0 }, "RefreshTTL"},
		{"empty prefix", func(c *Config) { c.Token.RedisPrefix = "" }, "RedisPrefix"},
		{"empty suffix", func(c *Config) { c.Token.KeySuffix = "" }, "KeySuffix"},
		{"weak token entropy", func(c *Config) { c.Token.RefreshTokenBytes = 8 }, "RefreshTokenBytes"},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, "AccessTTL"},
		{"access outlives refresh", func(c *Config) { c.JWT.AccessTTL = 30 * 24 * time.Hour }, "AccessTTL"},
		{"unknown signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }, "SigningMethod"},
		{"negative leeway", func(c *Config) { c.JWT.Leeway = -time.Second }, "Leeway"},
		{"audit without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "BufferSize"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestCloneConfigCopiesKeyMaterial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("secret")

	clone := cloneConfig(cfg)
	clone.JWT.PrivateKey[0] = 'X'

	if cfg.JWT.PrivateKey[0] != 's' {
		t.Fatal("clone shares key material with the original")
	}
}

func TestBuilderRequiresRedis(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error when no redis client is supplied")
	}
}

func TestBuilderBuildsOnlyOnce(t *testing.T) {
	h := newTestEngine(t)

	b := New().WithRedis(h.client).WithConfig(testConfig(t))
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}
