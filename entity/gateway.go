package entity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by gateways when the requested record does not exist.
	ErrNotFound = errors.New("entity: not found")
	// ErrConsumed is returned by a RefreshTokenRotator when the old token was already
	// consumed by a concurrent rotation.
	ErrConsumed = errors.New("entity: refresh token already consumed")
)

// ClientStore resolves and authenticates clients.
type ClientStore interface {
	// GetClient returns the client when id and secret match and the client may use
	// grantType; otherwise ErrNotFound.
	GetClient(ctx context.Context, clientID, clientSecret, grantType string) (*Client, error)
}

// ScopeStore resolves scope identifiers.
type ScopeStore interface {
	GetScope(ctx context.Context, scopeID, grantType, clientID string) (*Scope, error)
}

// SessionStore persists sessions and their scope associations.
type SessionStore interface {
	// Create stores the session and returns its identifier.
	Create(ctx context.Context, s Session) (string, error)
	AssociateScope(ctx context.Context, sessionID string, scope Scope) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	GetScopes(ctx context.Context, sessionID string) ([]Scope, error)
}

// AccessTokenStore persists access tokens and their scope associations.
type AccessTokenStore interface {
	Create(ctx context.Context, tokenID string, expiresAt time.Time, sessionID, refreshTokenID string) error
	AssociateScope(ctx context.Context, tokenID string, scope Scope) error
	GetScopes(ctx context.Context, tokenID string) ([]Scope, error)
	Delete(ctx context.Context, tokenID string) error
}

// RefreshTokenStore persists refresh tokens and remembers which ones were consumed.
type RefreshTokenStore interface {
	Create(ctx context.Context, tokenID string, expiresAt time.Time, sessionID string) error
	Get(ctx context.Context, tokenID string) (*RefreshToken, error)
	IsConsumed(ctx context.Context, tokenID string) (bool, error)
	// Delete consumes the token.
	Delete(ctx context.Context, tokenID string) error
}

// RefreshTokenRotator is implemented by refresh stores that can consume one token and
// create its successor in a single atomic step.
type RefreshTokenRotator interface {
	Rotate(ctx context.Context, oldID string, next RefreshToken) error
}
