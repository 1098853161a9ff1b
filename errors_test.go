package goGrant

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestOAuthErrorMapping(t *testing.T) {
	tests := []struct {
		kind   error
		code   string
		status int
	}{
		{ErrInvalidRequest, CodeInvalidRequest, http.StatusBadRequest},
		{ErrInvalidClient, CodeInvalidClient, http.StatusUnauthorized},
		{ErrInvalidCredentials, CodeInvalidGrant, http.StatusBadRequest},
		{ErrInvalidScope, CodeInvalidScope, http.StatusBadRequest},
		{ErrInvalidRefresh, CodeInvalidGrant, http.StatusBadRequest},
		{ErrUnsupportedGrantType, CodeUnsupportedGrantType, http.StatusBadRequest},
		{ErrRateLimited, CodeTemporarilyUnavailable, http.StatusTooManyRequests},
		{ErrServerError, CodeServerError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		e := newOAuthError(tc.kind, "", nil)
		if e.Code != tc.code || e.HTTPStatus != tc.status {
			t.Fatalf("%v: expected %s/%d, got %s/%d", tc.kind, tc.code, tc.status, e.Code, e.HTTPStatus)
		}
		if !errors.Is(e, tc.kind) {
			t.Fatalf("%v: errors.Is failed", tc.kind)
		}
		if e.Description == "" {
			t.Fatalf("%v: empty description", tc.kind)
		}
	}
}

func TestOAuthErrorUnknownKindIsServerError(t *testing.T) {
	e := newOAuthError(errors.New("odd"), "", nil)
	if !errors.Is(e, ErrServerError) || e.Code != CodeServerError {
		t.Fatalf("unexpected mapping %+v", e)
	}
}

func TestOAuthErrorParamInDescription(t *testing.T) {
	e := newOAuthError(ErrInvalidRequest, "username", nil)
	if !strings.Contains(e.Description, `"username"`) {
		t.Fatalf("expected param in description, got %q", e.Description)
	}
	e = newOAuthError(ErrInvalidScope, "admin", nil)
	if !strings.Contains(e.Description, `"admin"`) {
		t.Fatalf("expected scope in description, got %q", e.Description)
	}
}

func TestOAuthErrorHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:6379: connection refused")
	e := newOAuthError(ErrServerError, "", cause)

	if !errors.Is(e, cause) {
		t.Fatal("cause must stay reachable through errors.Is")
	}
	if !strings.Contains(e.Error(), "connection refused") {
		t.Fatal("Error() should carry the cause for logs")
	}
	resp := e.Response()
	if strings.Contains(resp.ErrorDescription, "10.0.0.5") || resp.Error != CodeServerError {
		t.Fatalf("response leaked the cause: %+v", resp)
	}
}
