package goGrant

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest: a required parameter is missing or empty.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidClient: client authentication failed.
	ErrInvalidClient = errors.New("invalid client")
	// ErrInvalidCredentials: the resource owner credentials did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidScope: a requested scope is unknown or not permitted.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidRefresh: the refresh token is unknown, consumed, expired or foreign.
	ErrInvalidRefresh = errors.New("invalid refresh token")
	// ErrServerError: a collaborator failed or the server is misconfigured.
	ErrServerError = errors.New("server error")
	// ErrUnsupportedGrantType: grant_type names no enabled grant.
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	// ErrRateLimited: too many failed password attempts.
	ErrRateLimited = errors.New("rate limited")
	// ErrVerifierAlreadyRegistered is returned by SetCredentialVerifier on a second call.
	ErrVerifierAlreadyRegistered = errors.New("credential verifier already registered")
)

// RFC 6749 section 5.2 error codes.
const (
	CodeInvalidRequest         = "invalid_request"
	CodeInvalidClient          = "invalid_client"
	CodeInvalidGrant           = "invalid_grant"
	CodeInvalidScope           = "invalid_scope"
	CodeUnsupportedGrantType   = "unsupported_grant_type"
	CodeServerError            = "server_error"
	CodeTemporarilyUnavailable = "temporarily_unavailable"
)

// OAuthError is the error returned by Server.IssueToken. Kind is one of the sentinel
// errors above and is what errors.Is matches against.
type OAuthError struct {
	Kind        error
	Code        string
	Description string
	// Param is the missing parameter or rejected scope, when known.
	Param      string
	HTTPStatus int
	Err        error
	// Events raised by the grant before it failed.
	Events []Event
}

// ErrorResponse is the JSON body of a token error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (e *OAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("goGrant: %s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("goGrant: %s: %s", e.Code, e.Description)
}

func (e *OAuthError) Unwrap() error { return e.Err }

// Is matches the error kind as well as the wrapped cause.
func (e *OAuthError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// Response renders the client-facing body. Wrapped causes are never exposed.
func (e *OAuthError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Code, ErrorDescription: e.Description}
}

func newOAuthError(kind error, param string, cause error) *OAuthError {
	e := &OAuthError{Kind: kind, Param: param, Err: cause}

	switch kind {
	case ErrInvalidRequest:
		e.Code, e.HTTPStatus = CodeInvalidRequest, http.StatusBadRequest
		e.Description = "The request is missing a required parameter."
		if param != "" {
			e.Description = fmt.Sprintf("The request is missing the %q parameter.", param)
		}
	case ErrInvalidClient:
		e.Code, e.HTTPStatus = CodeInvalidClient, http.StatusUnauthorized
		e.Description = "Client authentication failed."
	case ErrInvalidCredentials:
		e.Code, e.HTTPStatus = CodeInvalidGrant, http.StatusBadRequest
		e.Description = "The user credentials were incorrect."
	case ErrInvalidScope:
		e.Code, e.HTTPStatus = CodeInvalidScope, http.StatusBadRequest
		e.Description = "The requested scope is invalid, unknown, or malformed."
		if param != "" {
			e.Description = fmt.Sprintf("The requested scope %q is invalid, unknown, or malformed.", param)
		}
	case ErrInvalidRefresh:
		e.Code, e.HTTPStatus = CodeInvalidGrant, http.StatusBadRequest
		e.Description = "The refresh token is invalid."
	case ErrUnsupportedGrantType:
		e.Code, e.HTTPStatus = CodeUnsupportedGrantType, http.StatusBadRequest
		e.Description = "The authorization grant type is not supported by the authorization server."
	case ErrRateLimited:
		e.Code, e.HTTPStatus = CodeTemporarilyUnavailable, http.StatusTooManyRequests
		e.Description = "Too many failed attempts. Try again later."
	default:
		e.Kind = ErrServerError
		e.Code, e.HTTPStatus = CodeServerError, http.StatusInternalServerError
		e.Description = "The authorization server encountered an unexpected condition."
	}
	return e
}
