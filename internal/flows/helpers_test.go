package flows

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/MrEthical07/goGrant/storage/memory"
)

type seqTokens struct {
	n atomic.Int64
}

func (s *seqTokens) AccessToken(context.Context, entity.AccessClaims) (string, error) {
	return fmt.Sprintf("at-%d", s.n.Add(1)), nil
}

func (s *seqTokens) RefreshToken(context.Context) (string, error) {
	return fmt.Sprintf("rt-%d", s.n.Add(1)), nil
}

type staticVerifier struct {
	user, pass, id string
	calls          int
}

func (v *staticVerifier) Verify(_ context.Context, username, password string) (string, bool, error) {
	v.calls++
	if username == v.user && password == v.pass {
		return v.id, true, nil
	}
	return "", false, nil
}

// trapClients fails the test run if any storage is touched.
type trapClients struct{ hit *bool }

func (t trapClients) GetClient(context.Context, string, string, string) (*entity.Client, error) {
	*t.hit = true
	return nil, entity.ErrNotFound
}

type fixture struct {
	store    *memory.Store
	tokens   *seqTokens
	verifier *staticVerifier
	now      time.Time
}

func newFixture() *fixture {
	store := memory.New()
	store.AddClient(entity.Client{
		ID:         "c1",
		Secret:     "s",
		Scopes:     []string{"basic", "email"},
		GrantTypes: []string{GrantPassword, GrantRefreshToken},
	})
	store.AddClient(entity.Client{
		ID:         "c2",
		Secret:     "s2",
		Scopes:     []string{"basic"},
		GrantTypes: []string{GrantPassword, GrantRefreshToken},
	})
	store.AddScope(entity.Scope{ID: "basic"})
	store.AddScope(entity.Scope{ID: "email"})
	store.AddScope(entity.Scope{ID: "admin"})

	return &fixture{
		store:    store,
		tokens:   &seqTokens{},
		verifier: &staticVerifier{user: "alice", pass: "pw", id: "u1"},
		now:      time.Unix(1_700_000_000, 0),
	}
}

func (f *fixture) clientDeps() ClientDeps {
	return ClientDeps{Clients: f.store, Scopes: f.store, ScopeDelimiter: " "}
}

func (f *fixture) passwordDeps() PasswordDeps {
	return PasswordDeps{
		ClientDeps:    f.clientDeps(),
		Verifier:      func() CredentialVerifier { return f.verifier },
		Sessions:      f.store.Sessions(),
		AccessTokens:  f.store.AccessTokens(),
		RefreshTokens: f.store.RefreshTokens(),
		Tokens:        f.tokens,
		AccessTTL:     3600 * time.Second,
		RefreshTTL:    604800 * time.Second,
		IssueRefresh:  true,
		Now:           func() time.Time { return f.now },
	}
}

func (f *fixture) refreshDeps() RefreshDeps {
	return RefreshDeps{
		ClientDeps:    f.clientDeps(),
		Sessions:      f.store.Sessions(),
		AccessTokens:  f.store.AccessTokens(),
		RefreshTokens: f.store.RefreshTokens(),
		Tokens:        f.tokens,
		AccessTTL:     3600 * time.Second,
		RefreshTTL:    604800 * time.Second,
		Rotate:        true,
		Now:           func() time.Time { return f.now },
	}
}

func form(kv ...string) Input {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return Input{Form: v}
}
