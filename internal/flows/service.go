package flows

import "context"

// Service is the centralized flow runner built once by the root server.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Password.Sessions != nil && s.deps.Refresh.RefreshTokens != nil
}

func (s Service) Password(ctx context.Context, in Input) Result {
	return RunPassword(ctx, in, s.deps.Password)
}

func (s Service) Refresh(ctx context.Context, in Input) Result {
	return RunRefresh(ctx, in, s.deps.Refresh)
}
