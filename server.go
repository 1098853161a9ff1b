package goGrant

import (
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goGrant/internal/flows"
	"github.com/rs/zerolog"
)

// Server issues tokens for the enabled grants. It is safe for concurrent use once
// built; the only mutation afterwards is the one-time verifier registration.
type Server struct {
	config  Config
	logger  zerolog.Logger
	metrics *Metrics
	events  *eventDispatcher
	flows   flows.Service
	now     func() time.Time

	verifier atomic.Pointer[verifierSlot]

	throttle            flows.PasswordThrottle
	distributedThrottle bool
}

var errServerNotBuilt = errors.New("goGrant: server not built")

type verifierSlot struct {
	v CredentialVerifier
}

// SetCredentialVerifier registers the verifier used by the password grant. Only
// one registration is accepted.
func (s *Server) SetCredentialVerifier(v CredentialVerifier) error {
	if v == nil {
		return errors.New("goGrant: nil credential verifier")
	}
	if !s.verifier.CompareAndSwap(nil, &verifierSlot{v: v}) {
		return ErrVerifierAlreadyRegistered
	}
	return nil
}

func (s *Server) currentVerifier() flows.CredentialVerifier {
	slot := s.verifier.Load()
	if slot == nil {
		return nil
	}
	return slot.v
}

// IssueToken runs the grant named by grant_type. Failures are returned as
// *OAuthError; events raised along the way are on the Result or the error and are
// also relayed to the configured sink.
func (s *Server) IssueToken(ctx context.Context, req *Request) (*Result, error) {
	if s == nil || !s.flows.Initialized() {
		return nil, newOAuthError(ErrServerError, "", errServerNotBuilt)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = NewRequest(nil)
	}
	in := req.input(ctx)

	grant := in.Get("grant_type")
	switch {
	case grant == "":
		s.metrics.Inc(MetricInvalidRequest)
		return nil, newOAuthError(ErrInvalidRequest, "grant_type", nil)
	case grant == GrantTypePassword && s.config.Grants.Password:
		return s.issuePassword(ctx, in)
	case grant == GrantTypeRefreshToken && s.config.Grants.RefreshToken:
		return s.issueRefresh(ctx, in)
	default:
		s.metrics.Inc(MetricUnsupportedGrant)
		s.logger.Debug().Str("grant_type", grant).Msg("unsupported grant type")
		return nil, newOAuthError(ErrUnsupportedGrantType, "", nil)
	}
}

// publish stamps flow events with request context, relays them and returns them.
func (s *Server) publish(grant string, in flows.Input, clientID string, raw []flows.Event) []Event {
	if len(raw) == 0 {
		return nil
	}
	if clientID == "" {
		clientID = requestClientID(in)
	}

	at := s.now()
	out := make([]Event, 0, len(raw))
	for _, fe := range raw {
		ev := Event{
			Name:       fe.Name,
			Timestamp:  at,
			GrantType:  grant,
			ClientID:   clientID,
			RemoteAddr: in.RemoteAddr,
			Metadata:   fe.Metadata,
		}
		out = append(out, ev)

		relayed := ev
		relayed.Metadata = maps.Clone(fe.Metadata)
		s.events.Emit(relayed)
	}
	return out
}

func requestClientID(in flows.Input) string {
	if id := in.Get("client_id"); id != "" {
		return id
	}
	if in.HasBasic {
		return in.BasicUser
	}
	return ""
}

// reject maps a flow failure to an *OAuthError and records it.
func (s *Server) reject(grant string, res flows.Result, events []Event) *OAuthError {
	var kind error
	switch res.Failure {
	case flows.FailureInvalidRequest:
		kind = ErrInvalidRequest
		s.metrics.Inc(MetricInvalidRequest)
	case flows.FailureInvalidClient:
		kind = ErrInvalidClient
		s.metrics.Inc(MetricClientAuthFailure)
	case flows.FailureInvalidCredentials:
		kind = ErrInvalidCredentials
		s.metrics.Inc(MetricInvalidCredentials)
	case flows.FailureInvalidScope:
		kind = ErrInvalidScope
		s.metrics.Inc(MetricInvalidScope)
	case flows.FailureInvalidRefresh:
		kind = ErrInvalidRefresh
	case flows.FailureRefreshReplayed:
		kind = ErrInvalidRefresh
		s.metrics.Inc(MetricRefreshReplayDetected)
		s.logger.Warn().Str("grant_type", grant).Msg("consumed refresh token presented")
	case flows.FailureRateLimited:
		kind = ErrRateLimited
		s.metrics.Inc(MetricPasswordRateLimited)
	default:
		kind = ErrServerError
		s.metrics.Inc(MetricServerError)
		s.logger.Error().Err(res.Err).Str("grant_type", grant).Msg("grant failed")
	}

	e := newOAuthError(kind, res.Param, res.Err)
	e.Events = events
	return e
}

func (s *Server) respond(grant string, res flows.Result, events []Event) *Result {
	r := NewBearerResponder()
	r.SetAccessToken(res.AccessToken, res.IssuedAt)
	r.SetRefreshToken(res.RefreshToken)
	r.SetParam("scope", res.Scope)

	s.logger.Debug().
		Str("grant_type", grant).
		Str("client_id", res.ClientID).
		Str("session_id", res.SessionID).
		Bool("rotated", res.Rotated).
		Msg("token issued")

	return &Result{
		Response:  r.GenerateResponse(),
		Events:    events,
		GrantType: grant,
		ClientID:  res.ClientID,
		OwnerID:   res.OwnerID,
		SessionID: res.SessionID,
		Rotated:   res.Rotated,
	}
}

// Config returns a copy of the effective configuration.
func (s *Server) Config() Config {
	if s == nil {
		return Config{}
	}
	return cloneConfig(s.config)
}

// Close flushes queued events to the sink and stops the dispatcher.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.events.Close()
}

// EventsDropped reports how many events were discarded because the buffer was full.
func (s *Server) EventsDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.events.Dropped()
}

func (s *Server) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return s.metrics.Snapshot()
}
