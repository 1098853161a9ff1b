// Package memory provides mutex-guarded in-process implementations of every entity
// gateway. It is intended for tests, examples and single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/google/uuid"
)

// Store implements all entity gateways over maps. Client and scope records are
// seeded with AddClient and AddScope.
type Store struct {
	mu sync.RWMutex

	clients map[string]entity.Client
	scopes  map[string]entity.Scope

	sessions      map[string]entity.Session
	sessionScopes map[string][]entity.Scope

	access       map[string]accessRecord
	accessScopes map[string][]entity.Scope

	refresh  map[string]entity.RefreshToken
	consumed map[string]time.Time

	now func() time.Time
}

type accessRecord struct {
	expiresAt      time.Time
	sessionID      string
	refreshTokenID string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		clients:       make(map[string]entity.Client),
		scopes:        make(map[string]entity.Scope),
		sessions:      make(map[string]entity.Session),
		sessionScopes: make(map[string][]entity.Scope),
		access:        make(map[string]accessRecord),
		accessScopes:  make(map[string][]entity.Scope),
		refresh:       make(map[string]entity.RefreshToken),
		consumed:      make(map[string]time.Time),
		now:           time.Now,
	}
}

// AddClient registers c. Secrets are compared verbatim.
func (s *Store) AddClient(c entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// AddScope registers sc.
func (s *Store) AddScope(sc entity.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[sc.ID] = sc
}

func (s *Store) GetClient(_ context.Context, clientID, clientSecret, grantType string) (*entity.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientID]
	if !ok || c.Secret != clientSecret || !c.AllowsGrant(grantType) {
		return nil, entity.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetScope(_ context.Context, scopeID, _, _ string) (*entity.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scopes[scopeID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &sc, nil
}

// Sessions exposes the session store half of the gateway set.
func (s *Store) Sessions() entity.SessionStore { return sessionStore{s} }

// AccessTokens exposes the access token store half of the gateway set.
func (s *Store) AccessTokens() entity.AccessTokenStore { return accessStore{s} }

// RefreshTokens exposes the refresh token store half of the gateway set.
func (s *Store) RefreshTokens() *RefreshStore { return &RefreshStore{s} }

type sessionStore struct{ s *Store }

func (st sessionStore) Create(_ context.Context, sess entity.Session) (string, error) {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	sess.ID = id
	sess.Scopes = nil
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	s.sessions[id] = sess
	return id, nil
}

func (st sessionStore) AssociateScope(_ context.Context, sessionID string, scope entity.Scope) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return entity.ErrNotFound
	}
	s.sessionScopes[sessionID] = append(s.sessionScopes[sessionID], scope)
	return nil
}

func (st sessionStore) Get(_ context.Context, sessionID string) (*entity.Session, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &sess, nil
}

func (st sessionStore) GetScopes(_ context.Context, sessionID string) ([]entity.Scope, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, entity.ErrNotFound
	}
	return append([]entity.Scope(nil), s.sessionScopes[sessionID]...), nil
}

type accessStore struct{ s *Store }

func (st accessStore) Create(_ context.Context, tokenID string, expiresAt time.Time, sessionID, refreshTokenID string) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access[tokenID] = accessRecord{expiresAt: expiresAt, sessionID: sessionID, refreshTokenID: refreshTokenID}
	return nil
}

func (st accessStore) AssociateScope(_ context.Context, tokenID string, scope entity.Scope) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.access[tokenID]; !ok {
		return entity.ErrNotFound
	}
	s.accessScopes[tokenID] = append(s.accessScopes[tokenID], scope)
	return nil
}

func (st accessStore) GetScopes(_ context.Context, tokenID string) ([]entity.Scope, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.access[tokenID]; !ok {
		return nil, entity.ErrNotFound
	}
	return append([]entity.Scope(nil), s.accessScopes[tokenID]...), nil
}

func (st accessStore) Delete(_ context.Context, tokenID string) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.access, tokenID)
	delete(s.accessScopes, tokenID)
	return nil
}

// AccessToken returns the stored access token record, scopes included.
func (s *Store) AccessToken(tokenID string) (entity.AccessToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.access[tokenID]
	if !ok {
		return entity.AccessToken{}, false
	}
	return entity.AccessToken{
		ID:             tokenID,
		ExpiresAt:      rec.expiresAt,
		SessionID:      rec.sessionID,
		RefreshTokenID: rec.refreshTokenID,
		Scopes:         entity.NewScopeSet(s.accessScopes[tokenID]...),
	}, true
}

// Counts reports how many sessions, access tokens and live refresh tokens are stored.
func (s *Store) Counts() (sessions, accessTokens, refreshTokens int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), len(s.access), len(s.refresh)
}

// RefreshStore is the refresh token gateway. It implements entity.RefreshTokenRotator.
type RefreshStore struct{ s *Store }

func (st *RefreshStore) Create(_ context.Context, tokenID string, expiresAt time.Time, sessionID string) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh[tokenID] = entity.RefreshToken{ID: tokenID, ExpiresAt: expiresAt, SessionID: sessionID}
	return nil
}

func (st *RefreshStore) Get(_ context.Context, tokenID string) (*entity.RefreshToken, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.refresh[tokenID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &t, nil
}

func (st *RefreshStore) IsConsumed(_ context.Context, tokenID string) (bool, error) {
	s := st.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.consumed[tokenID]
	return ok, nil
}

func (st *RefreshStore) Delete(_ context.Context, tokenID string) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	st.consumeLocked(tokenID)
	return nil
}

// Rotate consumes oldID and stores next under one lock. A token that is no longer
// live yields entity.ErrConsumed.
func (st *RefreshStore) Rotate(_ context.Context, oldID string, next entity.RefreshToken) error {
	s := st.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refresh[oldID]; !ok {
		return entity.ErrConsumed
	}
	st.consumeLocked(oldID)
	s.refresh[next.ID] = next
	return nil
}

func (st *RefreshStore) consumeLocked(tokenID string) {
	s := st.s
	t, ok := s.refresh[tokenID]
	if !ok {
		return
	}
	delete(s.refresh, tokenID)
	s.pruneConsumedLocked()
	s.consumed[tokenID] = t.ExpiresAt
}

// pruneConsumedLocked forgets tombstones of tokens past their expiry.
func (s *Store) pruneConsumedLocked() {
	now := s.now()
	for id, exp := range s.consumed {
		if exp.Before(now) {
			delete(s.consumed, id)
		}
	}
}
