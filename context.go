package goGrant

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. IssueToken uses it for
// per-IP password throttling and event context when the Request carries no
// RemoteAddr of its own.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
