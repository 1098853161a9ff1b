// Package internal holds helpers private to goGrant. OpaqueGenerator is the default
// token generator.
//
// # Sub-packages
//
//   - flows: pure grant orchestrators behind Server.IssueToken
//   - rate: password-grant throttles (Redis fixed windows, in-process buckets)
package internal
