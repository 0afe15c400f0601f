package tokenroll

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ethr-lab/tokenroll/jwt"
	"github.com/ethr-lab/tokenroll/token"
)

// Builder assembles an Engine. Zero-config fields fall back to
// DefaultConfig; a Redis client is always required, and either JWT key
// material or a custom Minter must be supplied.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	minter    Minter
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client the token store will use.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMinter replaces the built-in JWT/opaque minter. When set, the JWT
// section of the config is ignored.
func (b *Builder) WithMinter(m Minter) *Builder {
	b.minter = m
	return b
}

// WithAuditSink supplies the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the counter block.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the rotation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	minter := b.minter
	if minter == nil {
		manager, err := jwt.NewManager(jwt.Config{
			AccessTTL:     cfg.JWT.AccessTTL,
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cfg.JWT.PrivateKey,
			PublicKey:     cfg.JWT.PublicKey,
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
			Leeway:        cfg.JWT.Leeway,
		})
		if err != nil {
			return nil, err
		}
		minter = newDefaultMinter(manager, cfg.Token)
	}

	engine := &Engine{
		config:  cfg,
		store:   token.NewStore(b.redis, cfg.Token.RedisPrefix, cfg.Token.KeySuffix),
		minter:  minter,
		metrics: NewMetrics(cfg.Metrics),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
	}

	b.built = true
	return engine, nil
}
