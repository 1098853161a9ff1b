// Package redisstore keeps sessions, access tokens and refresh tokens in Redis.
//
// Every record is a hash; scopes live in a companion hash keyed by scope id. Token
// keys expire at the token's expiry. Rotation runs as one Lua script that deletes
// the old refresh token, leaves a consumed tombstone behind and writes the
// replacement, so two concurrent rotations of one token cannot both succeed.
package redisstore
