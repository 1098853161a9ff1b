// Package jwt issues self-contained access tokens signed with ed25519 or HMAC-SHA256.
// Refresh tokens stay opaque; only access tokens carry claims.
package jwt
