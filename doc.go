// Package goGrant is the token-issuance core of an OAuth 2.0 authorization server. It
// implements the resource owner password grant and the refresh_token grant with
// refresh token rotation and replay detection.
//
// A [Server] is assembled with a [Builder] from five storage gateways (see package
// entity), an optional [CredentialVerifier] and a [Config]. [Server.IssueToken] selects
// the grant from the grant_type parameter and returns either a [Result] carrying the
// bearer [TokenResponse] or an [*OAuthError] carrying the RFC 6749 error code.
//
// # Architecture boundaries
//
// goGrant is the public surface. Grant orchestration lives in internal/flows and
// password throttling in internal/rate. Reference gateway implementations live under
// storage/, token generators in jwt and credential verification in password.
//
// # What this package must NOT do
//
//   - Parse HTTP requests. Callers decode the form and basic credentials into a
//     [Request].
//   - Garbage-collect expired tokens or open transactions. Atomic refresh rotation is
//     provided by stores implementing entity.RefreshTokenRotator.
//   - Expose wrapped causes in [OAuthError.Response].
//
// # Concurrency
//
// Server methods are safe to call from multiple goroutines after Build. Events are
// returned with every Result and OAuthError and, when enabled, relayed to an
// [EventSink] from a single dispatcher goroutine.
package goGrant
