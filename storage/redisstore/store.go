package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Config tunes key naming and retention.
type Config struct {
	// Prefix namespaces every key. Default "gg".
	Prefix string
	// SessionTTL bounds how long a session record lives. Zero keeps it forever.
	SessionTTL time.Duration
	// ConsumedRetention is how long a rotated refresh token is remembered for
	// replay detection. Default 30 days.
	ConsumedRetention time.Duration
}

// Store implements the session, access token and refresh token gateways.
type Store struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "gg"
	}
	if cfg.ConsumedRetention <= 0 {
		cfg.ConsumedRetention = 30 * 24 * time.Hour
	}
	return &Store{redis: client, config: cfg}
}

func (s *Store) Sessions() *SessionStore           { return &SessionStore{s} }
func (s *Store) AccessTokens() *AccessTokenStore   { return &AccessTokenStore{s} }
func (s *Store) RefreshTokens() *RefreshTokenStore { return &RefreshTokenStore{s} }

func (s *Store) sessionKey(id string) string      { return s.config.Prefix + ":s:" + id }
func (s *Store) sessionScopeKey(id string) string { return s.config.Prefix + ":s:" + id + ":sc" }
func (s *Store) accessKey(id string) string       { return s.config.Prefix + ":a:" + id }
func (s *Store) accessScopeKey(id string) string  { return s.config.Prefix + ":a:" + id + ":sc" }
func (s *Store) refreshKey(id string) string      { return s.config.Prefix + ":r:" + id }
func (s *Store) consumedKey(id string) string     { return s.config.Prefix + ":rc:" + id }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

// associateScopeScript adds a scope to a record's scope hash, giving it the
// record's remaining lifetime. Returns 0 when the record does not exist.
const associateScopeScript = `
local ttl = redis.call("PTTL", KEYS[1])
if ttl == -2 then
  return 0
end
redis.call("HSET", KEYS[2], ARGV[1], ARGV[2])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

var associateScopeLua = redis.NewScript(associateScopeScript)

func (s *Store) associateScope(ctx context.Context, recordKey, scopeKey string, scope entity.Scope) error {
	ok, err := associateScopeLua.Run(ctx, s.redis, []string{recordKey, scopeKey}, scope.ID, scope.Description).Int()
	if err != nil {
		return unavailable(err)
	}
	if ok == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (s *Store) readScopes(ctx context.Context, recordKey, scopeKey string) ([]entity.Scope, error) {
	pipe := s.redis.Pipeline()
	exists := pipe.Exists(ctx, recordKey)
	all := pipe.HGetAll(ctx, scopeKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable(err)
	}
	if exists.Val() == 0 {
		return nil, entity.ErrNotFound
	}

	scopes := make([]entity.Scope, 0, len(all.Val()))
	for id, desc := range all.Val() {
		scopes = append(scopes, entity.Scope{ID: id, Description: desc})
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].ID < scopes[j].ID })
	return scopes, nil
}

/*
====================================
SESSIONS
====================================
*/

type SessionStore struct{ s *Store }

func (st *SessionStore) Create(ctx context.Context, sess entity.Session) (string, error) {
	id := uuid.NewString()
	key := st.s.sessionKey(id)

	_, err := st.s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"owner_type", sess.OwnerType,
			"owner_id", sess.OwnerID,
			"client_id", sess.ClientID,
			"created_at", strconv.FormatInt(sess.CreatedAt.UnixNano(), 10),
		)
		if st.s.config.SessionTTL > 0 {
			pipe.PExpire(ctx, key, st.s.config.SessionTTL)
		}
		return nil
	})
	if err != nil {
		return "", unavailable(err)
	}
	return id, nil
}

func (st *SessionStore) AssociateScope(ctx context.Context, sessionID string, scope entity.Scope) error {
	return st.s.associateScope(ctx, st.s.sessionKey(sessionID), st.s.sessionScopeKey(sessionID), scope)
}

func (st *SessionStore) Get(ctx context.Context, sessionID string) (*entity.Session, error) {
	fields, err := st.s.redis.HGetAll(ctx, st.s.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, entity.ErrNotFound
	}

	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: corrupt created_at", sessionID)
	}
	return &entity.Session{
		ID:        sessionID,
		OwnerType: fields["owner_type"],
		OwnerID:   fields["owner_id"],
		ClientID:  fields["client_id"],
		CreatedAt: time.Unix(0, created),
	}, nil
}

// GetScopes returns the session scopes ordered by id.
func (st *SessionStore) GetScopes(ctx context.Context, sessionID string) ([]entity.Scope, error) {
	return st.s.readScopes(ctx, st.s.sessionKey(sessionID), st.s.sessionScopeKey(sessionID))
}

/*
====================================
ACCESS TOKENS
====================================
*/

type AccessTokenStore struct{ s *Store }

func (st *AccessTokenStore) Create(ctx context.Context, tokenID string, expiresAt time.Time, sessionID, refreshTokenID string) error {
	key := st.s.accessKey(tokenID)
	_, err := st.s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"expires_at", strconv.FormatInt(expiresAt.UnixMilli(), 10),
			"session_id", sessionID,
			"refresh_token_id", refreshTokenID,
		)
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (st *AccessTokenStore) AssociateScope(ctx context.Context, tokenID string, scope entity.Scope) error {
	return st.s.associateScope(ctx, st.s.accessKey(tokenID), st.s.accessScopeKey(tokenID), scope)
}

// GetScopes returns the token scopes ordered by id.
func (st *AccessTokenStore) GetScopes(ctx context.Context, tokenID string) ([]entity.Scope, error) {
	return st.s.readScopes(ctx, st.s.accessKey(tokenID), st.s.accessScopeKey(tokenID))
}

func (st *AccessTokenStore) Delete(ctx context.Context, tokenID string) error {
	if err := st.s.redis.Del(ctx, st.s.accessKey(tokenID), st.s.accessScopeKey(tokenID)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get loads an access token record without its scopes.
func (st *AccessTokenStore) Get(ctx context.Context, tokenID string) (*entity.AccessToken, error) {
	fields, err := st.s.redis.HGetAll(ctx, st.s.accessKey(tokenID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, entity.ErrNotFound
	}
	ms, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("access token %s: corrupt expires_at", tokenID)
	}
	return &entity.AccessToken{
		ID:             tokenID,
		ExpiresAt:      time.UnixMilli(ms),
		SessionID:      fields["session_id"],
		RefreshTokenID: fields["refresh_token_id"],
	}, nil
}
