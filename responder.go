package goGrant

import (
	"encoding/json"
	"time"

	"github.com/MrEthical07/goGrant/entity"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// BearerResponder assembles a TokenResponse for a bearer access token.
type BearerResponder struct {
	access       entity.AccessToken
	issuedAt     time.Time
	refreshToken string
	params       map[string]string
}

func NewBearerResponder() *BearerResponder {
	return &BearerResponder{params: make(map[string]string)}
}

// SetAccessToken sets the token and the instant it was issued; expires_in is
// counted from there.
func (r *BearerResponder) SetAccessToken(t entity.AccessToken, issuedAt time.Time) {
	r.access = t
	r.issuedAt = issuedAt
}

func (r *BearerResponder) SetRefreshToken(id string) {
	r.refreshToken = id
}

// SetParam adds a response parameter. An empty value removes it.
func (r *BearerResponder) SetParam(key, value string) {
	if value == "" {
		delete(r.params, key)
		return
	}
	r.params[key] = value
}

func (r *BearerResponder) GenerateResponse() TokenResponse {
	resp := TokenResponse{
		AccessToken:  r.access.ID,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    expiresIn(r.access.ExpiresAt, r.issuedAt),
		RefreshToken: r.refreshToken,
	}
	for k, v := range r.params {
		switch k {
		case "scope":
			resp.Scope = v
		case "access_token", "token_type", "expires_in", "refresh_token":
			// reserved
		default:
			if resp.Extra == nil {
				resp.Extra = make(map[string]string, len(r.params))
			}
			resp.Extra[k] = v
		}
	}
	return resp
}

func expiresIn(expiresAt, issuedAt time.Time) int64 {
	d := expiresAt.Sub(issuedAt)
	if d <= 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}

// MarshalJSON writes the standard fields followed by Extra.
func (t TokenResponse) MarshalJSON() ([]byte, error) {
	type plain TokenResponse
	base, err := json.Marshal(plain(t))
	if err != nil || len(t.Extra) == 0 {
		return base, err
	}

	merged := make(map[string]any, len(t.Extra)+5)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range t.Extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
