// Package entity defines the token, session, scope and client records issued by the
// grant flows, together with the gateway interfaces that persist them.
//
// Records are plain values. They carry no storage handles and are never mutated after
// construction; persistence goes through the package-level helpers (SaveSession,
// SaveAccessToken, RotateRefreshToken, ...) which take the relevant gateway explicitly.
//
// # Gateway contract
//
//   - "Not found" is always signalled with [ErrNotFound] (wrapped is fine).
//   - Deleting a refresh token consumes it: IsConsumed must report true for that
//     identifier afterwards for at least the token's remaining lifetime.
//   - Stores that can swap refresh tokens atomically implement [RefreshTokenRotator]
//     and report a lost race with [ErrConsumed].
//
// # What this package must NOT do
//
//   - Import goGrant or any storage driver.
//   - Start transactions or retry gateway calls.
package entity
