// Package rate provides the password-grant throttles.
//
// # Window semantics
//
// [Limiter] keeps Redis fixed-window counters: INCR + EXPIRE on the first hit.
// Key prefixes:
//   - gp:  client+username
//   - gpi: client IP
//
// [Local] keeps the same budget in process with token buckets, for single-instance
// servers that run without Redis.
//
// # What this package must NOT do
//
//   - Decide which grants are throttled (the server wires that).
//   - Be imported outside the goGrant module.
package rate
