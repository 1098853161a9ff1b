package goGrant

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk TOML layout. Durations are Go duration strings
// ("1h", "15m"); key material is referenced by path.
type fileConfig struct {
	Token struct {
		AccessTTL      string `toml:"access_ttl"`
		RefreshTTL     string `toml:"refresh_ttl"`
		Format         string `toml:"format"`
		SigningMethod  string `toml:"signing_method"`
		PrivateKeyFile string `toml:"private_key_file"`
		PublicKeyFile  string `toml:"public_key_file"`
		Issuer         string `toml:"issuer"`
		Audience       string `toml:"audience"`
		KeyID          string `toml:"key_id"`
	} `toml:"token"`
	Grants struct {
		Password            *bool `toml:"password"`
		RefreshToken        *bool `toml:"refresh_token"`
		RotateRefreshTokens *bool `toml:"rotate_refresh_tokens"`
		ScopeNarrowing      *bool `toml:"scope_narrowing"`
	} `toml:"grants"`
	Scope struct {
		Delimiter string `toml:"delimiter"`
	} `toml:"scope"`
	Events struct {
		Enabled    *bool `toml:"enabled"`
		BufferSize int   `toml:"buffer_size"`
	} `toml:"events"`
	Metrics struct {
		Enabled                 *bool `toml:"enabled"`
		EnableLatencyHistograms *bool `toml:"latency_histograms"`
	} `toml:"metrics"`
	Security struct {
		EnablePasswordThrottle *bool  `toml:"password_throttle"`
		EnableIPThrottle       *bool  `toml:"ip_throttle"`
		MaxPasswordAttempts    int    `toml:"max_password_attempts"`
		PasswordCooldown       string `toml:"password_cooldown"`
	} `toml:"security"`
	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
}

// LoadConfig starts from DefaultConfig and merges each TOML file in order; later files
// win and missing files are skipped. GOGRANT_* environment variables are applied last.
func LoadConfig(paths ...string) (Config, error) {
	cfg := defaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := mergeTOML(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig merges a single TOML document over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()
	if err := mergeTOML(&cfg, data); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeTOML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if err := setDuration(&cfg.Token.AccessTTL, fc.Token.AccessTTL, "token.access_ttl"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Token.RefreshTTL, fc.Token.RefreshTTL, "token.refresh_ttl"); err != nil {
		return err
	}
	setString(&cfg.Token.Format, fc.Token.Format)
	setString(&cfg.Token.SigningMethod, fc.Token.SigningMethod)
	setString(&cfg.Token.Issuer, fc.Token.Issuer)
	setString(&cfg.Token.Audience, fc.Token.Audience)
	setString(&cfg.Token.KeyID, fc.Token.KeyID)
	if fc.Token.PrivateKeyFile != "" {
		key, err := os.ReadFile(fc.Token.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("token.private_key_file: %w", err)
		}
		cfg.Token.PrivateKey = key
	}
	if fc.Token.PublicKeyFile != "" {
		key, err := os.ReadFile(fc.Token.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("token.public_key_file: %w", err)
		}
		cfg.Token.PublicKey = key
	}

	setBool(&cfg.Grants.Password, fc.Grants.Password)
	setBool(&cfg.Grants.RefreshToken, fc.Grants.RefreshToken)
	setBool(&cfg.Grants.RotateRefreshTokens, fc.Grants.RotateRefreshTokens)
	setBool(&cfg.Grants.ScopeNarrowing, fc.Grants.ScopeNarrowing)

	setString(&cfg.Scope.Delimiter, fc.Scope.Delimiter)

	setBool(&cfg.Events.Enabled, fc.Events.Enabled)
	if fc.Events.BufferSize != 0 {
		cfg.Events.BufferSize = fc.Events.BufferSize
	}

	setBool(&cfg.Metrics.Enabled, fc.Metrics.Enabled)
	setBool(&cfg.Metrics.EnableLatencyHistograms, fc.Metrics.EnableLatencyHistograms)

	setBool(&cfg.Security.EnablePasswordThrottle, fc.Security.EnablePasswordThrottle)
	setBool(&cfg.Security.EnableIPThrottle, fc.Security.EnableIPThrottle)
	if fc.Security.MaxPasswordAttempts != 0 {
		cfg.Security.MaxPasswordAttempts = fc.Security.MaxPasswordAttempts
	}
	if err := setDuration(&cfg.Security.PasswordCooldown, fc.Security.PasswordCooldown, "security.password_cooldown"); err != nil {
		return err
	}

	setString(&cfg.Logging.Level, fc.Logging.Level)
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv("GOGRANT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if v := os.Getenv("GOGRANT_ACCESS_TTL"); v != "" {
		if err := setDuration(&cfg.Token.AccessTTL, v, "GOGRANT_ACCESS_TTL"); err != nil {
			return err
		}
	}
	if v := os.Getenv("GOGRANT_REFRESH_TTL"); v != "" {
		if err := setDuration(&cfg.Token.RefreshTTL, v, "GOGRANT_REFRESH_TTL"); err != nil {
			return err
		}
	}
	if v := os.Getenv("GOGRANT_ROTATE_REFRESH_TOKENS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GOGRANT_ROTATE_REFRESH_TOKENS: %w", err)
		}
		cfg.Grants.RotateRefreshTokens = b
	}
	return nil
}

func setDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
