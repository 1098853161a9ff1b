package goGrant

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[token]
access_ttl = "15m"
refresh_ttl = "720h"

[grants]
rotate_refresh_tokens = false
scope_narrowing = true

[scope]
delimiter = ","

[events]
enabled = true
buffer_size = 16

[security]
password_throttle = true
max_password_attempts = 3
password_cooldown = "10m"

[logging]
level = "debug"
`

func TestParseConfigMergesOverDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, TokenFormatOpaque, cfg.Token.Format)
	assert.True(t, cfg.Grants.Password, "unset keys keep defaults")
	assert.False(t, cfg.Grants.RotateRefreshTokens)
	assert.True(t, cfg.Grants.ScopeNarrowing)
	assert.Equal(t, ",", cfg.Scope.Delimiter)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, 16, cfg.Events.BufferSize)
	assert.True(t, cfg.Security.EnablePasswordThrottle)
	assert.Equal(t, 3, cfg.Security.MaxPasswordAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Security.PasswordCooldown)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	_, err := ParseConfig([]byte(`[token]
access_ttl = "soon"`))
	assert.ErrorContains(t, err, "token.access_ttl")

	_, err = ParseConfig([]byte(`[token`))
	assert.Error(t, err)
}

func TestLoadConfigLayersFilesAndEnv(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(base, []byte(sampleConfig), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("[token]\naccess_ttl = \"30m\"\n"), 0o600))

	t.Setenv("GOGRANT_LOG_LEVEL", "warn")
	t.Setenv("GOGRANT_ROTATE_REFRESH_TOKENS", "true")

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), local)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Token.AccessTTL, "later files win")
	assert.Equal(t, 720*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Grants.RotateRefreshTokens)
}

func TestLoadConfigReadsKeyFiles(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "hmac.key")
	require.NoError(t, os.WriteFile(secret, []byte("0123456789abcdef0123456789abcdef"), 0o600))

	path := filepath.Join(dir, "jwt.toml")
	doc := "[token]\nformat = \"jwt\"\nsigning_method = \"hs256\"\nprivate_key_file = \"" + filepath.ToSlash(secret) + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cfg.Token.PrivateKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("GOGRANT_ACCESS_TTL", "forever")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "GOGRANT_ACCESS_TTL")
}
