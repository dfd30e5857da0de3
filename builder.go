package authcore

import (
	"errors"

	internalaudit "github.com/oleanderhq/authcore/internal/audit"
	"github.com/oleanderhq/authcore/store"
	"github.com/oleanderhq/authcore/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from its configuration and collaborators.
// Build validates everything once; the resulting engine is immutable.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory UserDirectory
	sender    Sender
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the credential store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the external user directory.
func (b *Builder) WithDirectory(d UserDirectory) *Builder {
	b.directory = d
	return b
}

// WithSender sets the login-code notification sender.
func (b *Builder) WithSender(s Sender) *Builder {
	b.sender = s
	return b
}

// WithAuditSink sets the audit sink. Without one, audit events are dropped.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and collaborators and assembles the
// engine. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("user directory required")
	}
	if b.sender == nil {
		return nil, errors.New("notification sender required")
	}

	signer, err := token.NewSigner(cfg.SigningKey, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		cfg:    cfg,
		tokens: NewService(cfg, signer, store.New(b.redis, cfg.RedisPrefix)),
	}
	engine.directory = b.directory
	engine.sender = b.sender
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
