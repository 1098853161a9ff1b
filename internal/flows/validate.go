package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goGrant/entity"
)

// ValidateParams checks that every name is present and non-empty, in order.
func ValidateParams(in Input, names ...string) error {
	for _, name := range names {
		if in.Get(name) == "" {
			return fail(FailureInvalidRequest, name, nil)
		}
	}
	return nil
}

// GetInput returns the body parameter or def when it is absent.
func GetInput(in Input, name, def string) string {
	if v := in.Get(name); v != "" {
		return v
	}
	return def
}

// GetClient authenticates the client for grantType. Credentials are read from the body
// first and fall back to HTTP basic auth field by field.
func GetClient(ctx context.Context, in Input, grantType string, deps ClientDeps) (*entity.Client, error) {
	basicUser, basicPass := "", ""
	if in.HasBasic {
		basicUser, basicPass = in.BasicUser, in.BasicPass
	}

	clientID := GetInput(in, "client_id", basicUser)
	if clientID == "" {
		return nil, fail(FailureInvalidRequest, "client_id", nil)
	}
	clientSecret := GetInput(in, "client_secret", basicPass)
	if clientSecret == "" {
		return nil, fail(FailureInvalidRequest, "client_secret", nil)
	}

	client, err := deps.Clients.GetClient(ctx, clientID, clientSecret, grantType)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fail(FailureInvalidClient, "", err)
		}
		return nil, fail(FailureServer, "", fmt.Errorf("get client: %w", err))
	}
	if client == nil || !client.AllowsGrant(grantType) {
		return nil, fail(FailureInvalidClient, "", nil)
	}
	return client, nil
}

// SplitScopes splits raw on delim, dropping empty segments and duplicates.
func SplitScopes(raw, delim string) []string {
	if delim == "" {
		delim = " "
	}
	parts := strings.Split(raw, delim)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ValidateScopes resolves the requested scope string. Every scope must be permitted for
// the client and known to the scope store; the first offender is reported.
func ValidateScopes(ctx context.Context, raw string, client *entity.Client, grantType string, deps ClientDeps) (entity.ScopeSet, error) {
	ids := SplitScopes(raw, deps.ScopeDelimiter)
	scopes := make([]entity.Scope, 0, len(ids))

	for _, id := range ids {
		if !client.AllowsScope(id) {
			return entity.ScopeSet{}, fail(FailureInvalidScope, id, nil)
		}
		scope, err := deps.Scopes.GetScope(ctx, id, grantType, client.ID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return entity.ScopeSet{}, fail(FailureInvalidScope, id, err)
			}
			return entity.ScopeSet{}, fail(FailureServer, "", fmt.Errorf("get scope %q: %w", id, err))
		}
		if scope == nil {
			return entity.ScopeSet{}, fail(FailureInvalidScope, id, nil)
		}
		scopes = append(scopes, *scope)
	}

	return entity.NewScopeSet(scopes...), nil
}

// scopeEcho returns the granted scope string when it differs from what was requested.
func scopeEcho(requested string, granted entity.ScopeSet, delim string) string {
	if requested == "" {
		return ""
	}
	if delim == "" {
		delim = " "
	}
	joined := granted.Join(delim)
	if joined == requested {
		return ""
	}
	return joined
}
