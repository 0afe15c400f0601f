package tokenroll

import (
	"errors"
	"fmt"
	"time"
)

// Config groups all engine settings. Zero value is not usable; start from
// DefaultConfig and override.
type Config struct {
	Token   TokenConfig
	JWT     JWTConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig controls the refresh-token side: how long refresh tokens
// live, how their Redis keys are derived, and how much entropy each opaque
// token carries.
type TokenConfig struct {
	// RefreshTTL is the lifetime of a freshly issued refresh token. The
	// stored record's ExpiresAt and the Redis key TTL both derive from it.
	RefreshTTL time.Duration

	// RedisPrefix and KeySuffix frame the token in the Redis key:
	// prefix:token:suffix. Both sides must agree on these for rotation to
	// find its records.
	RedisPrefix string
	KeySuffix   string

	// RefreshTokenBytes is the entropy of each opaque token before
	// base64url encoding.
	RefreshTokenBytes int
}

// JWTConfig controls access-token minting for the built-in minter. Ignored
// when a custom Minter is supplied to the builder.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" or "hs256"
	PrivateKey    []byte // PEM for ed25519, raw secret for hs256
	PublicKey     []byte // PEM, ed25519 only
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking: events beyond the buffer are
	// counted and discarded instead of backpressuring the hot path.
	DropIfFull bool
}

// MetricsConfig controls the lock-free counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the settings the engine ships with. Signing key
// material is intentionally absent and must be provided.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			RefreshTTL:        7 * 24 * time.Hour,
			RedisPrefix:       "rt",
			KeySuffix:         "meta",
			RefreshTokenBytes: 32,
		},
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return out
}

// Validate rejects configurations the engine cannot run with. It checks
// shape only; key material is validated when the minter is constructed.
func (c *Config) Validate() error {
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token.RefreshTTL must be > 0")
	}
	if c.Token.RedisPrefix == "" {
		return errors.New("Token.RedisPrefix must not be empty")
	}
	if c.Token.KeySuffix == "" {
		return errors.New("Token.KeySuffix must not be empty")
	}
	if c.Token.RefreshTokenBytes < 16 {
		return fmt.Errorf("Token.RefreshTokenBytes must be >= 16, got %d", c.Token.RefreshTokenBytes)
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be > 0")
	}
	if c.JWT.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("JWT.AccessTTL must be shorter than Token.RefreshTTL")
	}
	switch c.JWT.SigningMethod {
	case "ed25519", "hs256":
	default:
		return fmt.Errorf("JWT.SigningMethod %q not supported", c.JWT.SigningMethod)
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT.Leeway must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
