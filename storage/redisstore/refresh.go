package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goGrant/entity"
	"github.com/redis/go-redis/v9"
)

const rotateStatusConsumed int64 = 0

// KEYS: old token, old tombstone, next token.
// ARGV: retention ms, next expiry unix ms, next session id.
const rotateRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], "1", "PX", ARGV[1])
redis.call("HSET", KEYS[3], "expires_at", ARGV[2], "session_id", ARGV[3])
redis.call("PEXPIREAT", KEYS[3], ARGV[2])
return 1
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// KEYS: token, tombstone. ARGV: retention ms.
const consumeRefreshScript = `
if redis.call("DEL", KEYS[1]) == 1 then
  redis.call("SET", KEYS[2], "1", "PX", ARGV[1])
  return 1
end
return 0
`

var consumeRefreshLua = redis.NewScript(consumeRefreshScript)

// RefreshTokenStore also implements entity.RefreshTokenRotator.
type RefreshTokenStore struct{ s *Store }

func (st *RefreshTokenStore) Create(ctx context.Context, tokenID string, expiresAt time.Time, sessionID string) error {
	key := st.s.refreshKey(tokenID)
	_, err := st.s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"expires_at", strconv.FormatInt(expiresAt.UnixMilli(), 10),
			"session_id", sessionID,
		)
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (st *RefreshTokenStore) Get(ctx context.Context, tokenID string) (*entity.RefreshToken, error) {
	fields, err := st.s.redis.HGetAll(ctx, st.s.refreshKey(tokenID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(fields) == 0 {
		return nil, entity.ErrNotFound
	}
	ms, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("refresh token %s: corrupt expires_at", tokenID)
	}
	return &entity.RefreshToken{
		ID:        tokenID,
		ExpiresAt: time.UnixMilli(ms),
		SessionID: fields["session_id"],
	}, nil
}

func (st *RefreshTokenStore) IsConsumed(ctx context.Context, tokenID string) (bool, error) {
	n, err := st.s.redis.Exists(ctx, st.s.consumedKey(tokenID)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n == 1, nil
}

// Delete consumes the token. Deleting an unknown token is a no-op and leaves no
// tombstone.
func (st *RefreshTokenStore) Delete(ctx context.Context, tokenID string) error {
	err := consumeRefreshLua.Run(ctx, st.s.redis,
		[]string{st.s.refreshKey(tokenID), st.s.consumedKey(tokenID)},
		st.s.config.ConsumedRetention.Milliseconds(),
	).Err()
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Rotate consumes oldID and creates next in one step. It fails with
// entity.ErrConsumed when oldID is no longer live.
func (st *RefreshTokenStore) Rotate(ctx context.Context, oldID string, next entity.RefreshToken) error {
	status, err := rotateRefreshLua.Run(ctx, st.s.redis,
		[]string{st.s.refreshKey(oldID), st.s.consumedKey(oldID), st.s.refreshKey(next.ID)},
		st.s.config.ConsumedRetention.Milliseconds(),
		next.ExpiresAt.UnixMilli(),
		next.SessionID,
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if status == rotateStatusConsumed {
		return entity.ErrConsumed
	}
	return nil
}

var _ entity.RefreshTokenRotator = (*RefreshTokenStore)(nil)
