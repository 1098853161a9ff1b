package entity

import (
	"strings"
	"time"
)

// OwnerUser is the session owner type used by grants that act for an end user.
const OwnerUser = "user"

// Client is a registered OAuth client application.
type Client struct {
	ID     string
	Secret string
	Name   string
	// Scopes lists the scope identifiers the client may request.
	Scopes []string
	// GrantTypes lists the grant identifiers the client may use. An empty list
	// leaves the decision to the ClientStore.
	GrantTypes []string
}

// AllowsGrant reports whether the client may use grantType.
func (c Client) AllowsGrant(grantType string) bool {
	if len(c.GrantTypes) == 0 {
		return true
	}
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsScope reports whether scopeID is in the client's permitted set.
func (c Client) AllowsScope(scopeID string) bool {
	for _, s := range c.Scopes {
		if s == scopeID {
			return true
		}
	}
	return false
}

// Scope is a named permission.
type Scope struct {
	ID          string
	Description string
}

// ScopeSet is an ordered, de-duplicated and immutable collection of scopes.
// The zero value is an unresolved set; see [ScopeSet.Resolved].
type ScopeSet struct {
	items    []Scope
	index    map[string]struct{}
	resolved bool
}

// NewScopeSet builds a resolved set keeping the first occurrence of each identifier.
func NewScopeSet(scopes ...Scope) ScopeSet {
	set := ScopeSet{
		items:    make([]Scope, 0, len(scopes)),
		index:    make(map[string]struct{}, len(scopes)),
		resolved: true,
	}
	for _, s := range scopes {
		if _, dup := set.index[s.ID]; dup {
			continue
		}
		set.index[s.ID] = struct{}{}
		set.items = append(set.items, s)
	}
	return set
}

// Resolved reports whether the set has been populated, even if empty.
func (s ScopeSet) Resolved() bool { return s.resolved }

// Has reports membership by identifier.
func (s ScopeSet) Has(scopeID string) bool {
	_, ok := s.index[scopeID]
	return ok
}

// Len returns the number of scopes.
func (s ScopeSet) Len() int { return len(s.items) }

// List returns a copy of the scopes in insertion order.
func (s ScopeSet) List() []Scope {
	out := make([]Scope, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns the scope identifiers in insertion order.
func (s ScopeSet) IDs() []string {
	out := make([]string, len(s.items))
	for i, sc := range s.items {
		out[i] = sc.ID
	}
	return out
}

// Join renders the identifiers separated by delim.
func (s ScopeSet) Join(delim string) string {
	return strings.Join(s.IDs(), delim)
}

// Session binds an owner and a client to the scopes granted to them. One session is
// created per successful password grant and reused across refresh rotations.
type Session struct {
	ID        string
	OwnerType string
	OwnerID   string
	ClientID  string
	Scopes    []Scope
	CreatedAt time.Time
}

// AccessToken is an issued bearer credential.
type AccessToken struct {
	ID        string
	ExpiresAt time.Time
	SessionID string
	// RefreshTokenID links the token to the refresh token consumed to obtain it.
	RefreshTokenID string
	Scopes         ScopeSet
}

// NewAccessToken builds a token expiring ttl after issuedAt.
func NewAccessToken(id, sessionID string, issuedAt time.Time, ttl time.Duration, scopes ScopeSet) AccessToken {
	return AccessToken{
		ID:        id,
		ExpiresAt: issuedAt.Add(ttl),
		SessionID: sessionID,
		Scopes:    scopes,
	}
}

// HasScope reports whether the token carries scopeID.
func (t AccessToken) HasScope(scopeID string) bool {
	return t.Scopes.Has(scopeID)
}

// ScopeList returns the token scopes in grant order.
func (t AccessToken) ScopeList() []Scope {
	return t.Scopes.List()
}

// IsExpired reports whether now has reached the expiry instant.
func (t AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RefreshToken is an opaque credential exchangeable for a new access token.
type RefreshToken struct {
	ID        string
	ExpiresAt time.Time
	SessionID string
}

// NewRefreshToken builds a token expiring ttl after issuedAt.
func NewRefreshToken(id, sessionID string, issuedAt time.Time, ttl time.Duration) RefreshToken {
	return RefreshToken{
		ID:        id,
		ExpiresAt: issuedAt.Add(ttl),
		SessionID: sessionID,
	}
}

// IsExpired reports whether now has reached the expiry instant.
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AccessClaims is what a token generator may embed in a self-contained access token.
type AccessClaims struct {
	SessionID string
	ClientID  string
	OwnerID   string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
