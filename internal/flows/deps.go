package flows

import (
	"context"
	"net/url"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

// Grant identifiers.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// Event names raised by the flows.
const (
	EventUserAuthenticationFailed = "auth.user.failed"
	EventRefreshTokenConsumed     = "error.refresh.token.consumed"
)

// Deps groups flow dependency sets. The root server builds this once and delegates
// each grant to the matching flow.
type Deps struct {
	Password PasswordDeps
	Refresh  RefreshDeps
}

// Input is the decoded token request.
type Input struct {
	Form       url.Values
	BasicUser  string
	BasicPass  string
	HasBasic   bool
	RemoteAddr string
}

// Get returns the body parameter or "".
func (in Input) Get(name string) string {
	if in.Form == nil {
		return ""
	}
	return in.Form.Get(name)
}

// CredentialVerifier resolves a username and password to a user identifier.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (userID string, ok bool, err error)
}

// PasswordThrottle budgets failed password attempts.
type PasswordThrottle interface {
	CheckPassword(ctx context.Context, key, ip string) error
	RecordPasswordFailure(ctx context.Context, key, ip string) error
	ResetPassword(ctx context.Context, key, ip string) error
}

// TokenIssuer produces access and refresh token identifiers.
type TokenIssuer interface {
	AccessToken(ctx context.Context, claims entity.AccessClaims) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

// ClientDeps is shared by every grant for client authentication and scope validation.
type ClientDeps struct {
	Clients        entity.ClientStore
	Scopes         entity.ScopeStore
	ScopeDelimiter string
}

// PasswordDeps captures password grant dependencies.
type PasswordDeps struct {
	ClientDeps
	// Verifier is read on every call; it returns nil until one is registered.
	Verifier      func() CredentialVerifier
	Throttle      PasswordThrottle
	RateLimited   error
	Sessions      entity.SessionStore
	AccessTokens  entity.AccessTokenStore
	RefreshTokens entity.RefreshTokenStore
	Tokens        TokenIssuer
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// IssueRefresh is true when the refresh_token grant is enabled on the server.
	IssueRefresh bool
	Now          func() time.Time
	Warn         func(string, ...any)
}

// RefreshDeps captures refresh_token grant dependencies.
type RefreshDeps struct {
	ClientDeps
	Sessions       entity.SessionStore
	AccessTokens   entity.AccessTokenStore
	RefreshTokens  entity.RefreshTokenStore
	Tokens         TokenIssuer
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	Rotate         bool
	ScopeNarrowing bool
	Now            func() time.Time
}
