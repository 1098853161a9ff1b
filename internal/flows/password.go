package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

// RunPassword exchanges resource-owner credentials for an access token and, when the
// refresh grant is enabled, a refresh token. Nothing is persisted unless the
// credentials verify and the requested scopes are valid.
func RunPassword(ctx context.Context, in Input, deps PasswordDeps) Result {
	var verifier CredentialVerifier
	if deps.Verifier != nil {
		verifier = deps.Verifier()
	}
	if verifier == nil {
		return failed(fail(FailureServer, "", ErrVerifierMissing), nil)
	}

	if err := ValidateParams(in, "username", "password"); err != nil {
		return failed(err, nil)
	}

	client, err := GetClient(ctx, in, GrantPassword, deps.ClientDeps)
	if err != nil {
		return failed(err, nil)
	}

	username := in.Get("username")
	throttleKey := client.ID + ":" + username

	if deps.Throttle != nil {
		if err := deps.Throttle.CheckPassword(ctx, throttleKey, in.RemoteAddr); err != nil {
			if deps.RateLimited != nil && errors.Is(err, deps.RateLimited) {
				return failed(fail(FailureRateLimited, "", err), nil)
			}
			return failed(fail(FailureServer, "", fmt.Errorf("password throttle: %w", err)), nil)
		}
	}

	userID, ok, err := verifier.Verify(ctx, username, in.Get("password"))
	if err != nil {
		return failed(fail(FailureServer, "", fmt.Errorf("verify credentials: %w", err)), nil)
	}
	if !ok {
		if deps.Throttle != nil {
			if err := deps.Throttle.RecordPasswordFailure(ctx, throttleKey, in.RemoteAddr); err != nil && deps.Warn != nil {
				deps.Warn("goGrant: password failure tracking failed")
			}
		}
		events := []Event{{
			Name: EventUserAuthenticationFailed,
			Metadata: map[string]string{
				"username": username,
			},
		}}
		return failed(fail(FailureInvalidCredentials, "", nil), events)
	}

	requested := in.Get("scope")
	scopes, err := ValidateScopes(ctx, requested, client, GrantPassword, deps.ClientDeps)
	if err != nil {
		return failed(err, nil)
	}

	now := deps.now()

	session, err := entity.SaveSession(ctx, deps.Sessions, entity.Session{
		OwnerType: entity.OwnerUser,
		OwnerID:   userID,
		ClientID:  client.ID,
		Scopes:    scopes.List(),
		CreatedAt: now,
	})
	if err != nil {
		return failed(fail(FailureServer, "", err), nil)
	}

	accessID, err := deps.Tokens.AccessToken(ctx, entity.AccessClaims{
		SessionID: session.ID,
		ClientID:  client.ID,
		OwnerID:   userID,
		Scopes:    scopes.IDs(),
		IssuedAt:  now,
		ExpiresAt: now.Add(deps.AccessTTL),
	})
	if err != nil {
		return failed(fail(FailureServer, "", fmt.Errorf("generate access token: %w", err)), nil)
	}
	access := entity.NewAccessToken(accessID, session.ID, now, deps.AccessTTL, scopes)

	var refresh *entity.RefreshToken
	if deps.IssueRefresh {
		refreshID, err := deps.Tokens.RefreshToken(ctx)
		if err != nil {
			return failed(fail(FailureServer, "", fmt.Errorf("generate refresh token: %w", err)), nil)
		}
		rt := entity.NewRefreshToken(refreshID, session.ID, now, deps.RefreshTTL)
		refresh = &rt
	}

	if err := entity.SaveAccessToken(ctx, deps.AccessTokens, access); err != nil {
		return failed(fail(FailureServer, "", err), nil)
	}
	if refresh != nil {
		if err := entity.SaveRefreshToken(ctx, deps.RefreshTokens, *refresh); err != nil {
			return failed(fail(FailureServer, "", err), nil)
		}
	}

	if deps.Throttle != nil {
		if err := deps.Throttle.ResetPassword(ctx, throttleKey, in.RemoteAddr); err != nil && deps.Warn != nil {
			deps.Warn("goGrant: password throttle reset failed")
		}
	}

	res := Result{
		ClientID:    client.ID,
		OwnerID:     userID,
		SessionID:   session.ID,
		IssuedAt:    now,
		AccessToken: access,
		Scope:       scopeEcho(requested, scopes, deps.ScopeDelimiter),
	}
	if refresh != nil {
		res.RefreshToken = refresh.ID
	}
	return res
}

func (d PasswordDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
