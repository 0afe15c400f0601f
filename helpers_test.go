package tokenroll

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ethr-lab/tokenroll/jwt"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.JWT.Issuer = "tokenroll-test"
	return cfg
}

type testHarness struct {
	engine *Engine
	mr     *miniredis.Miniredis
	client *redis.Client
}

func newTestEngine(t *testing.T, opts ...func(*Builder)) *testHarness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b := New().WithRedis(client).WithConfig(testConfig(t))
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testHarness{engine: engine, mr: mr, client: client}
}

func mustManager(t *testing.T, cfg Config) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		t.Fatalf("failed to build jwt manager: %v", err)
	}
	return m
}

// seedRawRecord writes a record payload straight into Redis under the
// engine's key scheme, bypassing the minter. Used to stage expired or
// corrupt states the public API refuses to create.
func (h *testHarness) seedRawRecord(t *testing.T, tok, payload string, ttl time.Duration) {
	t.Helper()
	key := "rt:" + tok + ":meta"
	if err := h.client.Set(context.Background(), key, payload, ttl).Err(); err != nil {
		t.Fatalf("raw seed failed: %v", err)
	}
}
