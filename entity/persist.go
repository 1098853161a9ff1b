package entity

import (
	"context"
	"errors"
	"fmt"
)

// SaveSession creates s and associates each of its scopes. The returned copy carries
// the identifier assigned by the store.
func SaveSession(ctx context.Context, store SessionStore, s Session) (Session, error) {
	id, err := store.Create(ctx, s)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.ID = id
	for _, scope := range s.Scopes {
		if err := store.AssociateScope(ctx, id, scope); err != nil {
			return Session{}, fmt.Errorf("associate session scope %q: %w", scope.ID, err)
		}
	}
	return s, nil
}

// LoadSession fetches a session together with its scopes.
func LoadSession(ctx context.Context, store SessionStore, sessionID string) (*Session, error) {
	s, err := store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scopes, err := store.GetScopes(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session scopes: %w", err)
	}
	out := *s
	out.Scopes = scopes
	return &out, nil
}

// SessionOf recovers the session that owns a refresh token.
func SessionOf(ctx context.Context, store SessionStore, t RefreshToken) (*Session, error) {
	return LoadSession(ctx, store, t.SessionID)
}

// SaveAccessToken creates t and associates each of its scopes.
func SaveAccessToken(ctx context.Context, store AccessTokenStore, t AccessToken) error {
	if err := store.Create(ctx, t.ID, t.ExpiresAt, t.SessionID, t.RefreshTokenID); err != nil {
		return fmt.Errorf("create access token: %w", err)
	}
	for _, scope := range t.Scopes.List() {
		if err := store.AssociateScope(ctx, t.ID, scope); err != nil {
			return fmt.Errorf("associate access token scope %q: %w", scope.ID, err)
		}
	}
	return nil
}

// ExpireAccessToken deletes the token. Deleting an unknown token is not an error.
func ExpireAccessToken(ctx context.Context, store AccessTokenStore, tokenID string) error {
	if err := store.Delete(ctx, tokenID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// MaterializeScopes returns t with its scope set loaded from store. Tokens whose
// scopes are already resolved are returned unchanged, so the load happens at most once.
func MaterializeScopes(ctx context.Context, store AccessTokenStore, t AccessToken) (AccessToken, error) {
	if t.Scopes.Resolved() {
		return t, nil
	}
	scopes, err := store.GetScopes(ctx, t.ID)
	if err != nil {
		return AccessToken{}, fmt.Errorf("load access token scopes: %w", err)
	}
	t.Scopes = NewScopeSet(scopes...)
	return t, nil
}

// SaveRefreshToken creates t.
func SaveRefreshToken(ctx context.Context, store RefreshTokenStore, t RefreshToken) error {
	if err := store.Create(ctx, t.ID, t.ExpiresAt, t.SessionID); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// ExpireRefreshToken consumes the token.
func ExpireRefreshToken(ctx context.Context, store RefreshTokenStore, tokenID string) error {
	return store.Delete(ctx, tokenID)
}

// RotateRefreshToken consumes oldID and creates next. Stores implementing
// RefreshTokenRotator do both atomically; others get a delete followed by a create.
func RotateRefreshToken(ctx context.Context, store RefreshTokenStore, oldID string, next RefreshToken) error {
	if rotator, ok := store.(RefreshTokenRotator); ok {
		return rotator.Rotate(ctx, oldID, next)
	}
	if err := ExpireRefreshToken(ctx, store, oldID); err != nil {
		return fmt.Errorf("expire refresh token: %w", err)
	}
	return SaveRefreshToken(ctx, store, next)
}
