package goGrant

import (
	"errors"
	"strings"
	"time"
)

// Config holds every tunable of a Server. Build copies it; later changes to the
// caller's value have no effect.
type Config struct {
	Token    TokenConfig
	Grants   GrantsConfig
	Scope    ScopeConfig
	Events   EventsConfig
	Metrics  MetricsConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls token lifetimes and, when JWT access tokens are used, signing.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Format is "opaque" (default) or "jwt".
	Format        string
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
}

/*
====================================
GRANTS CONFIG
====================================
*/

// GrantsConfig enables grants and tunes refresh behaviour.
type GrantsConfig struct {
	Password     bool
	RefreshToken bool
	// RotateRefreshTokens consumes the presented refresh token and issues a new one.
	RotateRefreshTokens bool
	// ScopeNarrowing lets a refresh request ask for a subset of the session scopes.
	ScopeNarrowing bool
}

// ScopeConfig controls how the scope parameter is parsed.
type ScopeConfig struct {
	Delimiter string
}

// EventsConfig controls the asynchronous event relay. Events that do not fit in
// BufferSize are dropped and counted; the relay never delays a grant.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls password-grant throttling.
type SecurityConfig struct {
	EnablePasswordThrottle bool
	EnableIPThrottle       bool
	MaxPasswordAttempts    int
	PasswordCooldown       time.Duration
}

// LoggingConfig sets the minimum level the server logs at.
type LoggingConfig struct {
	Level string
}

// Token formats.
const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"
)

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     3600 * time.Second,
			RefreshTTL:    604800 * time.Second,
			Format:        TokenFormatOpaque,
			SigningMethod: "ed25519",
		},
		Grants: GrantsConfig{
			Password:            true,
			RefreshToken:        true,
			RotateRefreshTokens: true,
			ScopeNarrowing:      false,
		},
		Scope: ScopeConfig{
			Delimiter: " ",
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 1024,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			EnablePasswordThrottle: false,
			EnableIPThrottle:       false,
			MaxPasswordAttempts:    5,
			PasswordCooldown:       15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.AccessTTL%time.Second != 0 {
		return errors.New("Token AccessTTL must be a whole number of seconds")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}

	switch c.Token.Format {
	case TokenFormatOpaque:
	case TokenFormatJWT:
		if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
			return errors.New("unsupported JWT signing method")
		}
		if len(c.Token.PrivateKey) == 0 {
			return errors.New(c.Token.SigningMethod + " requires PrivateKey")
		}
		if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("Token Format must be \"opaque\" or \"jwt\"")
	}

	// Grants
	if !c.Grants.Password && !c.Grants.RefreshToken {
		return errors.New("at least one grant must be enabled")
	}

	// Scope
	if c.Scope.Delimiter == "" {
		return errors.New("Scope Delimiter must not be empty")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}

	// Security
	if c.Security.EnablePasswordThrottle {
		if c.Security.MaxPasswordAttempts <= 0 {
			return errors.New("Security MaxPasswordAttempts must be > 0")
		}
		if c.Security.PasswordCooldown <= 0 {
			return errors.New("Security PasswordCooldown must be > 0")
		}
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error", "disabled":
	default:
		return errors.New("Logging Level must be one of debug, info, warn, error, disabled")
	}

	return nil
}
