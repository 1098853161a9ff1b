package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

// RunRefresh exchanges a refresh token for a new access token on the same session.
// With rotation on the presented token is consumed and replaced; presenting a consumed
// token again raises EventRefreshTokenConsumed and fails as FailureRefreshReplayed.
func RunRefresh(ctx context.Context, in Input, deps RefreshDeps) Result {
	if err := ValidateParams(in, "refresh_token"); err != nil {
		return failed(err, nil)
	}

	client, err := GetClient(ctx, in, GrantRefreshToken, deps.ClientDeps)
	if err != nil {
		return failed(err, nil)
	}

	presented := in.Get("refresh_token")

	old, err := deps.RefreshTokens.Get(ctx, presented)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return failed(fail(FailureServer, "", fmt.Errorf("get refresh token: %w", err)), nil)
		}
		consumed, cerr := deps.RefreshTokens.IsConsumed(ctx, presented)
		if cerr != nil {
			return failed(fail(FailureServer, "", fmt.Errorf("check refresh token: %w", cerr)), nil)
		}
		if consumed {
			return failed(fail(FailureRefreshReplayed, "", err), []Event{consumedEvent()})
		}
		return failed(fail(FailureInvalidRefresh, "", err), nil)
	}

	now := deps.now()
	if old.IsExpired(now) {
		return failed(fail(FailureInvalidRefresh, "", errors.New("refresh token expired")), nil)
	}

	session, err := entity.SessionOf(ctx, deps.Sessions, *old)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return failed(fail(FailureInvalidRefresh, "", err), nil)
		}
		return failed(fail(FailureServer, "", fmt.Errorf("load session: %w", err)), nil)
	}
	if session.ClientID != client.ID {
		return failed(fail(FailureInvalidRefresh, "", errors.New("refresh token issued to another client")), nil)
	}

	scopes := entity.NewScopeSet(session.Scopes...)
	requested := ""
	if deps.ScopeNarrowing {
		requested = in.Get("scope")
		if requested != "" {
			narrowed, err := ValidateScopes(ctx, requested, client, GrantRefreshToken, deps.ClientDeps)
			if err != nil {
				return failed(err, nil)
			}
			for _, id := range narrowed.IDs() {
				if !scopes.Has(id) {
					return failed(fail(FailureInvalidScope, id, nil), nil)
				}
			}
			scopes = narrowed
		}
	}

	accessID, err := deps.Tokens.AccessToken(ctx, entity.AccessClaims{
		SessionID: session.ID,
		ClientID:  client.ID,
		OwnerID:   session.OwnerID,
		Scopes:    scopes.IDs(),
		IssuedAt:  now,
		ExpiresAt: now.Add(deps.AccessTTL),
	})
	if err != nil {
		return failed(fail(FailureServer, "", fmt.Errorf("generate access token: %w", err)), nil)
	}
	access := entity.NewAccessToken(accessID, session.ID, now, deps.AccessTTL, scopes)

	res := Result{
		ClientID:     client.ID,
		OwnerID:      session.OwnerID,
		SessionID:    session.ID,
		IssuedAt:     now,
		RefreshToken: presented,
		Scope:        scopeEcho(requested, scopes, deps.ScopeDelimiter),
	}

	if deps.Rotate {
		nextID, err := deps.Tokens.RefreshToken(ctx)
		if err != nil {
			return failed(fail(FailureServer, "", fmt.Errorf("generate refresh token: %w", err)), nil)
		}
		next := entity.NewRefreshToken(nextID, session.ID, now, deps.RefreshTTL)
		if err := entity.RotateRefreshToken(ctx, deps.RefreshTokens, presented, next); err != nil {
			if errors.Is(err, entity.ErrConsumed) {
				return failed(fail(FailureRefreshReplayed, "", err), []Event{consumedEvent()})
			}
			return failed(fail(FailureServer, "", fmt.Errorf("rotate refresh token: %w", err)), nil)
		}
		access.RefreshTokenID = presented
		res.RefreshToken = nextID
		res.Rotated = true
	}

	if err := entity.SaveAccessToken(ctx, deps.AccessTokens, access); err != nil {
		return failed(fail(FailureServer, "", err), nil)
	}

	res.AccessToken = access
	return res
}

func consumedEvent() Event {
	return Event{Name: EventRefreshTokenConsumed}
}

func (d RefreshDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
