package goGrant

import (
	"context"
	"net/url"

	"github.com/MrEthical07/goGrant/internal/flows"
)

// Grant type identifiers accepted in the grant_type parameter.
const (
	GrantTypePassword     = flows.GrantPassword
	GrantTypeRefreshToken = flows.GrantRefreshToken
)

// CredentialVerifier resolves resource owner credentials to a user identifier. A
// non-nil error is a collaborator failure; ok=false is a plain mismatch.
type CredentialVerifier = flows.CredentialVerifier

// TokenGenerator produces access and refresh token identifiers.
type TokenGenerator = flows.TokenIssuer

// CredentialVerifierFunc adapts a function to CredentialVerifier.
type CredentialVerifierFunc func(ctx context.Context, username, password string) (string, bool, error)

func (f CredentialVerifierFunc) Verify(ctx context.Context, username, password string) (string, bool, error) {
	return f(ctx, username, password)
}

// Request is a decoded token endpoint request. Form holds the body parameters;
// HTTP basic credentials, when the caller received any, go through SetBasicAuth.
type Request struct {
	Form       url.Values
	RemoteAddr string

	basicUser string
	basicPass string
	hasBasic  bool
}

// NewRequest wraps form values. A nil form is treated as empty.
func NewRequest(form url.Values) *Request {
	if form == nil {
		form = url.Values{}
	}
	return &Request{Form: form}
}

// SetBasicAuth records HTTP basic credentials. Body parameters take precedence
// field by field.
func (r *Request) SetBasicAuth(user, pass string) *Request {
	r.basicUser, r.basicPass, r.hasBasic = user, pass, true
	return r
}

func (r *Request) input(ctx context.Context) flows.Input {
	in := flows.Input{
		Form:       r.Form,
		BasicUser:  r.basicUser,
		BasicPass:  r.basicPass,
		HasBasic:   r.hasBasic,
		RemoteAddr: r.RemoteAddr,
	}
	if in.RemoteAddr == "" {
		in.RemoteAddr = clientIPFromContext(ctx)
	}
	return in
}

// TokenResponse is the RFC 6749 section 5.1 success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	// Extra carries additional parameters set on the responder.
	Extra map[string]string `json:"-"`
}

// Result is returned by IssueToken on success.
type Result struct {
	Response  TokenResponse
	Events    []Event
	GrantType string
	ClientID  string
	OwnerID   string
	SessionID string
	// Rotated reports that the presented refresh token was consumed and replaced.
	Rotated bool
}
