package flows

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

// ErrVerifierMissing is reported when the password grant runs without a verifier.
var ErrVerifierMissing = errors.New("credential verifier not registered")

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidRequest
	FailureInvalidClient
	FailureInvalidCredentials
	FailureInvalidScope
	FailureInvalidRefresh
	// FailureRefreshReplayed is a refresh token presented after it was consumed.
	FailureRefreshReplayed
	FailureRateLimited
	FailureServer
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidRequest:
		return "invalid_request"
	case FailureInvalidClient:
		return "invalid_client"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureInvalidScope:
		return "invalid_scope"
	case FailureInvalidRefresh:
		return "invalid_refresh"
	case FailureRefreshReplayed:
		return "refresh_replayed"
	case FailureRateLimited:
		return "rate_limited"
	case FailureServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// Failure is the error type returned by the validation helpers.
type Failure struct {
	Kind FailureKind
	// Param names the missing field or the rejected scope, when there is one.
	Param string
	Err   error
}

func (f *Failure) Error() string {
	msg := f.Kind.String()
	if f.Param != "" {
		msg += " (" + f.Param + ")"
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind FailureKind, param string, err error) *Failure {
	return &Failure{Kind: kind, Param: param, Err: err}
}

// Event is a notification raised by a flow.
type Event struct {
	Name     string
	Metadata map[string]string
}

// Result carries either the issued tokens or failure metadata.
type Result struct {
	Failure FailureKind
	Param   string
	Err     error
	Events  []Event

	ClientID  string
	OwnerID   string
	SessionID string

	IssuedAt    time.Time
	AccessToken entity.AccessToken
	// RefreshToken is the identifier to return to the client, if any.
	RefreshToken string
	Rotated      bool
	// Scope is set when the granted scopes differ from the requested string.
	Scope string
}

func failed(err error, events []Event) Result {
	var f *Failure
	if !errors.As(err, &f) {
		f = fail(FailureServer, "", err)
	}
	return Result{
		Failure: f.Kind,
		Param:   f.Param,
		Err:     f.Err,
		Events:  events,
	}
}
