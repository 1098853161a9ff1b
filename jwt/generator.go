package jwt

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/MrEthical07/goGrant/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// Config describes signing keys and the registered claims stamped on every token.
type Config struct {
	SigningMethod SigningMethod
	// PrivateKey is the ed25519 key (raw or PEM) or the HMAC secret.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	KeyID      string
	// Leeway applies to Parse only.
	Leeway time.Duration
}

// Claims is the payload of an issued access token.
type Claims struct {
	SessionID string `json:"sid"`
	ClientID  string `json:"client_id"`
	Scope     string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Generator signs access tokens from entity.AccessClaims. The token string is the
// access token identifier.
type Generator struct {
	config    Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	refresh   internal.OpaqueGenerator
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	g := &Generator{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
		g.method = jwt.SigningMethodHS256
		g.signKey = cfg.PrivateKey
		g.verifyKey = cfg.PrivateKey
	case MethodEd25519, "":
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		g.method = jwt.SigningMethodEdDSA
		g.signKey = priv
		g.verifyKey = pub
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return g, nil
}

// AccessToken signs claims; jti is a fresh UUID so two tokens never collide.
func (g *Generator) AccessToken(_ context.Context, c entity.AccessClaims) (string, error) {
	claims := Claims{
		SessionID: c.SessionID,
		ClientID:  c.ClientID,
		Scope:     strings.Join(c.Scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.OwnerID,
			Issuer:    g.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			NotBefore: jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if g.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{g.config.Audience}
	}

	token := jwt.NewWithClaims(g.method, claims)
	if g.config.KeyID != "" {
		token.Header["kid"] = g.config.KeyID
	}
	return token.SignedString(g.signKey)
}

// RefreshToken returns an opaque identifier.
func (g *Generator) RefreshToken(ctx context.Context) (string, error) {
	return g.refresh.RefreshToken(ctx)
}

// Parse verifies a token issued by this generator and returns its claims.
func (g *Generator) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{g.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if g.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(g.config.Leeway))
	}
	if g.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(g.config.Issuer))
	}
	if g.config.Audience != "" {
		options = append(options, jwt.WithAudience(g.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if g.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != g.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return g.verifyKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
