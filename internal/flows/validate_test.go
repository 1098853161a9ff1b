package flows

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func failureOf(t *testing.T, err error) *Failure {
	t.Helper()
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	return f
}

func TestValidateParamsReportsFirstMissing(t *testing.T) {
	err := ValidateParams(form("username", "alice"), "username", "password", "scope")
	f := failureOf(t, err)
	if f.Kind != FailureInvalidRequest || f.Param != "password" {
		t.Fatalf("unexpected failure %+v", f)
	}

	if err := ValidateParams(form("a", "1", "b", "2"), "a", "b"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestGetInputDefault(t *testing.T) {
	in := form("x", "1")
	if GetInput(in, "x", "d") != "1" || GetInput(in, "y", "d") != "d" {
		t.Fatal("GetInput mismatch")
	}
}

func TestGetClient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    Input
		grant string
		kind  FailureKind
		param string
	}{
		{name: "body credentials", in: form("client_id", "c1", "client_secret", "s"), grant: GrantPassword},
		{name: "basic auth", in: Input{Form: url.Values{}, HasBasic: true, BasicUser: "c1", BasicPass: "s"}, grant: GrantPassword},
		{name: "body id basic secret", in: Input{Form: url.Values{"client_id": {"c1"}}, HasBasic: true, BasicUser: "other", BasicPass: "s"}, grant: GrantPassword},
		{name: "missing id", in: form("client_secret", "s"), grant: GrantPassword, kind: FailureInvalidRequest, param: "client_id"},
		{name: "missing secret", in: form("client_id", "c1"), grant: GrantPassword, kind: FailureInvalidRequest, param: "client_secret"},
		{name: "wrong secret", in: form("client_id", "c1", "client_secret", "bad"), grant: GrantPassword, kind: FailureInvalidClient},
		{name: "grant not allowed", in: form("client_id", "c1", "client_secret", "s"), grant: "client_credentials", kind: FailureInvalidClient},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := GetClient(ctx, tc.in, tc.grant, f.clientDeps())
			if tc.kind == FailureNone {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if client.ID != "c1" {
					t.Fatalf("unexpected client %+v", client)
				}
				return
			}
			fl := failureOf(t, err)
			if fl.Kind != tc.kind || fl.Param != tc.param {
				t.Fatalf("got %+v want kind=%v param=%q", fl, tc.kind, tc.param)
			}
		})
	}
}

func TestValidateScopes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	client, err := f.store.GetClient(ctx, "c1", "s", GrantPassword)
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}

	set, err := ValidateScopes(ctx, "basic  email basic", client, GrantPassword, f.clientDeps())
	if err != nil {
		t.Fatalf("ValidateScopes: %v", err)
	}
	if got := set.Join(" "); got != "basic email" {
		t.Fatalf("unexpected scopes %q", got)
	}

	empty, err := ValidateScopes(ctx, "", client, GrantPassword, f.clientDeps())
	if err != nil || empty.Len() != 0 || !empty.Resolved() {
		t.Fatalf("expected empty resolved set, got %v %v", empty.IDs(), err)
	}

	// admin exists in the store but is not permitted for c1.
	_, err = ValidateScopes(ctx, "basic admin", client, GrantPassword, f.clientDeps())
	fl := failureOf(t, err)
	if fl.Kind != FailureInvalidScope || fl.Param != "admin" {
		t.Fatalf("unexpected failure %+v", fl)
	}

	client.Scopes = append(client.Scopes, "ghost")
	_, err = ValidateScopes(ctx, "ghost", client, GrantPassword, f.clientDeps())
	fl = failureOf(t, err)
	if fl.Kind != FailureInvalidScope || fl.Param != "ghost" {
		t.Fatalf("unexpected failure %+v", fl)
	}
}

func TestSplitScopesCustomDelimiter(t *testing.T) {
	got := SplitScopes("a,b,,a", ",")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected split %v", got)
	}
}
