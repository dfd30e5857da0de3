package authcore

import (
	"errors"
	"time"
)

// Config carries every tunable of the auth core. Construct it with
// [DefaultConfig] and override fields before passing it to the builder;
// after [Builder.Build] it is treated as immutable.
type Config struct {
	// SigningKey is the process-wide HS256 key for access tokens. Loaded
	// once at startup and never rotated within a process lifetime. At
	// least 32 bytes.
	SigningKey []byte

	// Issuer is stamped into and required of every access token.
	Issuer string

	// AccessTTL bounds the life of a signed access token.
	AccessTTL time.Duration

	// CodeTTL bounds the life of a pending login code.
	CodeTTL time.Duration

	// RefreshTTL bounds the life of a session. Renewals replace the
	// refresh token value but never extend this deadline past the original
	// session length.
	RefreshTTL time.Duration

	// CodeDigits is the login code length, 6 to 10.
	CodeDigits int

	// RedisPrefix namespaces all credential store keys.
	RedisPrefix string

	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the documented defaults: 15m access tokens, 5m login
// codes, 168h (one week) sessions, 6-digit codes.
func DefaultConfig() Config {
	return Config{
		Issuer:      "authcore",
		AccessTTL:   15 * time.Minute,
		CodeTTL:     5 * time.Minute,
		RefreshTTL:  168 * time.Hour,
		CodeDigits:  6,
		RedisPrefix: "ac",
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if len(c.SigningKey) < 32 {
		return errors.New("SigningKey must be at least 32 bytes")
	}
	if c.AccessTTL <= 0 {
		return errors.New("AccessTTL must be positive")
	}
	if c.CodeTTL <= 0 {
		return errors.New("CodeTTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("RefreshTTL must be positive")
	}
	if c.RefreshTTL < c.AccessTTL {
		return errors.New("RefreshTTL must not be shorter than AccessTTL")
	}
	if c.CodeDigits < 6 || c.CodeDigits > 10 {
		return errors.New("CodeDigits must be between 6 and 10")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.SigningKey = append([]byte(nil), c.SigningKey...)
	return out
}
