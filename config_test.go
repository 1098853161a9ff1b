package goGrant

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "access ttl zero",
			mutate: func(c *Config) {
				c.Token.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "access ttl fractional seconds",
			mutate: func(c *Config) {
				c.Token.AccessTTL = 1500 * time.Millisecond
			},
			wantValid: false,
		},
		{
			name: "refresh ttl negative",
			mutate: func(c *Config) {
				c.Token.RefreshTTL = -time.Second
			},
			wantValid: false,
		},
		{
			name: "unknown token format",
			mutate: func(c *Config) {
				c.Token.Format = "paseto"
			},
			wantValid: false,
		},
		{
			name: "jwt hs256 with secret",
			mutate: func(c *Config) {
				c.Token.Format = TokenFormatJWT
				c.Token.SigningMethod = "hs256"
				c.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
			},
			wantValid: true,
		},
		{
			name: "jwt without key",
			mutate: func(c *Config) {
				c.Token.Format = TokenFormatJWT
				c.Token.SigningMethod = "hs256"
			},
			wantValid: false,
		},
		{
			name: "jwt ed25519 without public key",
			mutate: func(c *Config) {
				c.Token.Format = TokenFormatJWT
				c.Token.PrivateKey = []byte("k")
			},
			wantValid: false,
		},
		{
			name: "jwt unknown signing method",
			mutate: func(c *Config) {
				c.Token.Format = TokenFormatJWT
				c.Token.SigningMethod = "rs256"
				c.Token.PrivateKey = []byte("k")
			},
			wantValid: false,
		},
		{
			name: "no grants",
			mutate: func(c *Config) {
				c.Grants.Password = false
				c.Grants.RefreshToken = false
			},
			wantValid: false,
		},
		{
			name: "refresh only",
			mutate: func(c *Config) {
				c.Grants.Password = false
			},
			wantValid: true,
		},
		{
			name: "empty scope delimiter",
			mutate: func(c *Config) {
				c.Scope.Delimiter = ""
			},
			wantValid: false,
		},
		{
			name: "events enabled without buffer",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "throttle without attempts",
			mutate: func(c *Config) {
				c.Security.EnablePasswordThrottle = true
				c.Security.MaxPasswordAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "throttle without cooldown",
			mutate: func(c *Config) {
				c.Security.EnablePasswordThrottle = true
				c.Security.PasswordCooldown = 0
			},
			wantValid: false,
		},
		{
			name: "unknown log level",
			mutate: func(c *Config) {
				c.Logging.Level = "trace"
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigMatchesGrantDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Token.AccessTTL != time.Hour || cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls: %v / %v", cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	}
	if !cfg.Grants.RotateRefreshTokens || cfg.Grants.ScopeNarrowing {
		t.Fatal("rotation on and narrowing off by default")
	}
	if cfg.Scope.Delimiter != " " {
		t.Fatalf("unexpected delimiter %q", cfg.Scope.Delimiter)
	}
}

func TestServerConfigIsACopy(t *testing.T) {
	ts := newTestServer(t, nil)

	cfg := ts.srv.Config()
	cfg.Token.AccessTTL = time.Second
	cfg.Token.PrivateKey = []byte("mutated")

	if ts.srv.Config().Token.AccessTTL != time.Hour {
		t.Fatal("Config leaked internal state")
	}
}
