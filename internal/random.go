package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/MrEthical07/goGrant/entity"
)

const (
	accessTokenSize  = 32
	refreshTokenSize = 48
)

// OpaqueGenerator issues random base64url identifiers for both token kinds.
type OpaqueGenerator struct{}

func (OpaqueGenerator) AccessToken(context.Context, entity.AccessClaims) (string, error) {
	return NewOpaqueToken(accessTokenSize)
}

func (OpaqueGenerator) RefreshToken(context.Context) (string, error) {
	return NewOpaqueToken(refreshTokenSize)
}

// NewOpaqueToken returns size random bytes encoded as unpadded base64url.
func NewOpaqueToken(size int) (string, error) {
	if size < 16 {
		return "", errors.New("opaque token must be at least 16 bytes")
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
