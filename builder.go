package goGrant

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/MrEthical07/goGrant/internal"
	"github.com/MrEthical07/goGrant/internal/flows"
	"github.com/MrEthical07/goGrant/internal/rate"
	"github.com/MrEthical07/goGrant/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder collects the collaborators of a Server. A Builder can build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	clients  entity.ClientStore
	scopes   entity.ScopeStore
	sessions entity.SessionStore
	access   entity.AccessTokenStore
	refresh  entity.RefreshTokenStore

	verifier CredentialVerifier
	tokens   TokenGenerator
	sink     EventSink
	logger   *zerolog.Logger
	now      func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the password throttle with Redis instead of in-process buckets.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithClientStore(s entity.ClientStore) *Builder {
	b.clients = s
	return b
}

func (b *Builder) WithScopeStore(s entity.ScopeStore) *Builder {
	b.scopes = s
	return b
}

func (b *Builder) WithSessionStore(s entity.SessionStore) *Builder {
	b.sessions = s
	return b
}

func (b *Builder) WithAccessTokenStore(s entity.AccessTokenStore) *Builder {
	b.access = s
	return b
}

// WithRefreshTokenStore sets the refresh token gateway. Stores that also implement
// entity.RefreshTokenRotator rotate atomically.
func (b *Builder) WithRefreshTokenStore(s entity.RefreshTokenStore) *Builder {
	b.refresh = s
	return b
}

// WithCredentialVerifier performs the Server's single verifier registration at
// Build time.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithTokenGenerator overrides the generator selected by Token.Format.
func (b *Builder) WithTokenGenerator(g TokenGenerator) *Builder {
	b.tokens = g
	return b
}

func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.sink = sink
	return b
}

func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock replaces time.Now for token issuance and expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Server.
func (b *Builder) Build() (*Server, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case b.clients == nil:
		return nil, errors.New("client store required")
	case b.scopes == nil:
		return nil, errors.New("scope store required")
	case b.sessions == nil:
		return nil, errors.New("session store required")
	case b.access == nil:
		return nil, errors.New("access token store required")
	case b.refresh == nil:
		return nil, errors.New("refresh token store required")
	}

	tokens := b.tokens
	if tokens == nil {
		g, err := newTokenGenerator(cfg.Token)
		if err != nil {
			return nil, err
		}
		tokens = g
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = b.logger.Level(parseLevel(cfg.Logging.Level))
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	srv := &Server{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		now:     now,
	}
	srv.events = newEventDispatcher(cfg.Events, b.sink, func(ev Event) {
		srv.metrics.Inc(MetricEventDropped)
		srv.logger.Warn().Str("event", ev.Name).Msg("event buffer full, event dropped")
	})

	if cfg.Security.EnablePasswordThrottle {
		rcfg := rate.Config{
			EnableIPThrottle:    cfg.Security.EnableIPThrottle,
			MaxPasswordAttempts: cfg.Security.MaxPasswordAttempts,
			PasswordCooldown:    cfg.Security.PasswordCooldown,
		}
		if b.redis != nil {
			srv.throttle = rate.New(b.redis, rcfg)
			srv.distributedThrottle = true
		} else {
			srv.throttle = rate.NewLocal(rcfg)
		}
	}

	clientDeps := flows.ClientDeps{
		Clients:        b.clients,
		Scopes:         b.scopes,
		ScopeDelimiter: cfg.Scope.Delimiter,
	}
	srv.flows = flows.New(flows.Deps{
		Password: flows.PasswordDeps{
			ClientDeps:    clientDeps,
			Verifier:      srv.currentVerifier,
			Throttle:      srv.throttle,
			RateLimited:   rate.ErrRateLimited,
			Sessions:      b.sessions,
			AccessTokens:  b.access,
			RefreshTokens: b.refresh,
			Tokens:        tokens,
			AccessTTL:     cfg.Token.AccessTTL,
			RefreshTTL:    cfg.Token.RefreshTTL,
			IssueRefresh:  cfg.Grants.RefreshToken,
			Now:           now,
			Warn: func(format string, args ...any) {
				logger.Warn().Msgf(format, args...)
			},
		},
		Refresh: flows.RefreshDeps{
			ClientDeps:     clientDeps,
			Sessions:       b.sessions,
			AccessTokens:   b.access,
			RefreshTokens:  b.refresh,
			Tokens:         tokens,
			AccessTTL:      cfg.Token.AccessTTL,
			RefreshTTL:     cfg.Token.RefreshTTL,
			Rotate:         cfg.Grants.RotateRefreshTokens,
			ScopeNarrowing: cfg.Grants.ScopeNarrowing,
			Now:            now,
		},
	})

	if b.verifier != nil {
		if err := srv.SetCredentialVerifier(b.verifier); err != nil {
			srv.Close()
			return nil, err
		}
	}

	b.built = true
	return srv, nil
}

func newTokenGenerator(cfg TokenConfig) (TokenGenerator, error) {
	if cfg.Format != TokenFormatJWT {
		return internal.OpaqueGenerator{}, nil
	}
	return jwt.NewGenerator(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		PrivateKey:    cloneBytes(cfg.PrivateKey),
		PublicKey:     cloneBytes(cfg.PublicKey),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		KeyID:         cfg.KeyID,
	})
}
