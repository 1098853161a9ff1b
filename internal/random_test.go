package internal

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/MrEthical07/goGrant/entity"
)

func TestOpaqueGeneratorUniqueAndDecodable(t *testing.T) {
	var g OpaqueGenerator
	seen := make(map[string]struct{})

	for i := 0; i < 64; i++ {
		at, err := g.AccessToken(context.Background(), entity.AccessClaims{})
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		rt, err := g.RefreshToken(context.Background())
		if err != nil {
			t.Fatalf("RefreshToken: %v", err)
		}
		for _, tok := range []string{at, rt} {
			if _, dup := seen[tok]; dup {
				t.Fatalf("duplicate token %q", tok)
			}
			seen[tok] = struct{}{}
		}

		raw, err := base64.RawURLEncoding.DecodeString(rt)
		if err != nil || len(raw) != refreshTokenSize {
			t.Fatalf("unexpected refresh token encoding %q: %v", rt, err)
		}
	}
}

func TestNewOpaqueTokenRejectsShortSize(t *testing.T) {
	if _, err := NewOpaqueToken(8); err == nil {
		t.Fatal("expected error for short token")
	}
}
