package goGrant

import "time"

// SecurityReport summarises the effective security posture of a Server.
type SecurityReport struct {
	TokenFormat      string
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	PasswordGrantEnabled bool
	RefreshGrantEnabled  bool
	VerifierRegistered   bool

	RefreshRotationEnabled bool
	// RefreshReuseDetectionEnabled is true when consumed tokens leave a trace that
	// replay detection can find, which only happens with rotation on.
	RefreshReuseDetectionEnabled bool
	ScopeNarrowingEnabled        bool

	PasswordThrottleActive bool
	DistributedThrottle    bool
	IPThrottleActive       bool

	EventsEnabled  bool
	MetricsEnabled bool
}

func (s *Server) SecurityReport() SecurityReport {
	if s == nil {
		return SecurityReport{}
	}

	signing := ""
	if s.config.Token.Format == TokenFormatJWT {
		signing = s.config.Token.SigningMethod
	}
	rotation := s.config.Grants.RefreshToken && s.config.Grants.RotateRefreshTokens
	throttle := s.throttle != nil

	return SecurityReport{
		TokenFormat:                  s.config.Token.Format,
		SigningAlgorithm:             signing,
		AccessTTL:                    s.config.Token.AccessTTL,
		RefreshTTL:                   s.config.Token.RefreshTTL,
		PasswordGrantEnabled:         s.config.Grants.Password,
		RefreshGrantEnabled:          s.config.Grants.RefreshToken,
		VerifierRegistered:           s.currentVerifier() != nil,
		RefreshRotationEnabled:       rotation,
		RefreshReuseDetectionEnabled: rotation,
		ScopeNarrowingEnabled:        s.config.Grants.RefreshToken && s.config.Grants.ScopeNarrowing,
		PasswordThrottleActive:       throttle,
		DistributedThrottle:          throttle && s.distributedThrottle,
		IPThrottleActive:             throttle && s.config.Security.EnableIPThrottle,
		EventsEnabled:                s.events != nil,
		MetricsEnabled:               s.metrics.Enabled(),
	}
}
