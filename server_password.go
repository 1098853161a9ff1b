package goGrant

import (
	"context"
	"time"

	"github.com/MrEthical07/goGrant/internal/flows"
)

func (s *Server) issuePassword(ctx context.Context, in flows.Input) (*Result, error) {
	start := time.Now()
	res := s.flows.Password(ctx, in)
	s.metrics.Observe(MetricPasswordLatency, time.Since(start))

	events := s.publish(GrantTypePassword, in, res.ClientID, res.Events)
	if res.Failure != flows.FailureNone {
		s.metrics.Inc(MetricPasswordFailure)
		return nil, s.reject(GrantTypePassword, res, events)
	}

	s.metrics.Inc(MetricPasswordSuccess)
	s.metrics.Inc(MetricSessionCreated)
	return s.respond(GrantTypePassword, res, events), nil
}
