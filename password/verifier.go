package password

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by a UserLookup for an unknown username.
var ErrUserNotFound = errors.New("password: user not found")

// UserLookup resolves a username to the user id and stored password hash.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (userID, hash string, err error)
}

// Verifier checks resource owner credentials against a UserLookup. Unknown users
// still pay for one hash computation.
type Verifier struct {
	hasher *Argon2
	lookup UserLookup
	dummy  string
}

func NewVerifier(hasher *Argon2, lookup UserLookup) (*Verifier, error) {
	if hasher == nil || lookup == nil {
		return nil, errors.New("password: verifier needs a hasher and a user lookup")
	}

	seed := make([]byte, 24)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(base64.RawURLEncoding.EncodeToString(seed))
	if err != nil {
		return nil, err
	}
	return &Verifier{hasher: hasher, lookup: lookup, dummy: dummy}, nil
}

// Verify returns the user id when password matches the stored hash.
func (v *Verifier) Verify(ctx context.Context, username, password string) (string, bool, error) {
	userID, hash, err := v.lookup.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_, _ = v.hasher.Verify(password, v.dummy)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := v.check(password, hash)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return userID, true, nil
}

func (v *Verifier) check(password, hash string) (bool, error) {
	if !isBcrypt(hash) {
		return v.hasher.Verify(password, hash)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
