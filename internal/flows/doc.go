// Package flows contains the grant orchestrators behind Server.IssueToken.
//
// Each flow (RunPassword, RunRefresh) accepts the request input and a typed dependency
// struct and returns a Result. Failures are reported as a FailureKind plus the offending
// parameter; the root package maps kinds to OAuth errors. Events raised during a flow
// travel back on the Result instead of being dispatched from here.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGrant (to avoid import cycles).
//   - Perform I/O directly. Storage, credential checks and throttling all go through
//     the dependency interfaces.
package flows
