package goGrant

import (
	"context"
	"time"

	"github.com/MrEthical07/goGrant/internal/flows"
)

func (s *Server) issueRefresh(ctx context.Context, in flows.Input) (*Result, error) {
	start := time.Now()
	res := s.flows.Refresh(ctx, in)
	s.metrics.Observe(MetricRefreshLatency, time.Since(start))

	events := s.publish(GrantTypeRefreshToken, in, res.ClientID, res.Events)
	if res.Failure != flows.FailureNone {
		s.metrics.Inc(MetricRefreshFailure)
		return nil, s.reject(GrantTypeRefreshToken, res, events)
	}

	s.metrics.Inc(MetricRefreshSuccess)
	if res.Rotated {
		s.metrics.Inc(MetricRefreshRotated)
	}
	return s.respond(GrantTypeRefreshToken, res, events), nil
}
