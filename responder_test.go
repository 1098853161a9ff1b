package goGrant

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

func TestBearerResponderStandardFields(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	r := NewBearerResponder()
	r.SetAccessToken(entity.NewAccessToken("at-1", "s-1", issued, time.Hour, entity.NewScopeSet()), issued)
	r.SetRefreshToken("rt-1")

	resp := r.GenerateResponse()
	want := TokenResponse{AccessToken: "at-1", TokenType: "Bearer", ExpiresIn: 3600, RefreshToken: "rt-1"}
	if resp.AccessToken != want.AccessToken || resp.TokenType != want.TokenType ||
		resp.ExpiresIn != want.ExpiresIn || resp.RefreshToken != want.RefreshToken {
		t.Fatalf("expected %+v, got %+v", want, resp)
	}
}

func TestBearerResponderParams(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	r := NewBearerResponder()
	r.SetAccessToken(entity.NewAccessToken("at-1", "s-1", issued, time.Hour, entity.NewScopeSet()), issued)
	r.SetParam("scope", "basic")
	r.SetParam("id_hint", "u-1")
	r.SetParam("token_type", "mac")
	r.SetParam("dropped", "x")
	r.SetParam("dropped", "")

	resp := r.GenerateResponse()
	if resp.Scope != "basic" {
		t.Fatalf("expected scope, got %q", resp.Scope)
	}
	if resp.TokenType != TokenTypeBearer {
		t.Fatalf("reserved field overwritten: %q", resp.TokenType)
	}
	if len(resp.Extra) != 1 || resp.Extra["id_hint"] != "u-1" {
		t.Fatalf("unexpected extras %v", resp.Extra)
	}
}

func TestExpiresInRounding(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	cases := []struct {
		expires time.Time
		want    int64
	}{
		{issued.Add(time.Hour), 3600},
		{issued.Add(90*time.Second + 400*time.Millisecond), 90},
		{issued.Add(90*time.Second + 600*time.Millisecond), 91},
		{issued, 0},
		{issued.Add(-time.Minute), 0},
	}
	for _, tc := range cases {
		if got := expiresIn(tc.expires, issued); got != tc.want {
			t.Fatalf("expiresIn(%v) = %d, want %d", tc.expires.Sub(issued), got, tc.want)
		}
	}
}

func TestTokenResponseJSON(t *testing.T) {
	data, err := json.Marshal(TokenResponse{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 60})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"access_token":"at","token_type":"Bearer","expires_in":60}` {
		t.Fatalf("unexpected body %s", data)
	}

	data, err = json.Marshal(TokenResponse{
		AccessToken: "at",
		TokenType:   "Bearer",
		ExpiresIn:   60,
		Extra:       map[string]string{"id_hint": "u-1", "access_token": "spoof"},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body["id_hint"] != "u-1" || body["access_token"] != "at" {
		t.Fatalf("unexpected merged body %v", body)
	}
	if _, ok := body["refresh_token"]; ok {
		t.Fatal("empty refresh_token must be omitted")
	}
}
