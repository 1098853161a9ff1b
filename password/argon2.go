package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB   uint32 = 8 * 1024
	minSaltLength uint32 = 16
	minKeyLength  uint32 = 16
	algorithmID          = "argon2id"
)

var (
	ErrEmptyPassword = errors.New("password: empty password")
	ErrMalformedHash = errors.New("password: malformed hash")
)

// Params are the argon2id cost parameters used for new hashes.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP argon2id baseline.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Params) validate() error {
	switch {
	case p.Memory < minMemoryKB:
		return fmt.Errorf("password: memory must be >= %d KiB", minMemoryKB)
	case p.Time < 1:
		return errors.New("password: time must be >= 1")
	case p.Parallelism < 1:
		return errors.New("password: parallelism must be >= 1")
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("password: salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return fmt.Errorf("password: key length must be >= %d", minKeyLength)
	}
	return nil
}

// Argon2 hashes and checks argon2id PHC strings.
type Argon2 struct {
	params Params
}

func NewArgon2(p Params) (*Argon2, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Argon2{params: p}, nil
}

// Hash returns a PHC string for password. The password bytes are used as given.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	h := phc{
		memory:      a.params.Memory,
		time:        a.params.Time,
		parallelism: a.params.Parallelism,
		salt:        salt,
	}
	h.key = h.derive(password, a.params.KeyLength)
	return h.String(), nil
}

// Verify reports whether password matches encoded. A malformed hash is an error,
// a mismatch is not.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := h.derive(password, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(computed, h.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker parameters than
// the current ones, or with another algorithm.
func (a *Argon2) NeedsRehash(encoded string) (bool, error) {
	if isBcrypt(encoded) {
		return true, nil
	}
	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return a.params.Memory > h.memory ||
		a.params.Time > h.time ||
		a.params.Parallelism > h.parallelism ||
		a.params.KeyLength != uint32(len(h.key)), nil
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (h phc) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.parallelism, keyLen)
}

func (h phc) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		h.memory, h.time, h.parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func parsePHC(encoded string) (phc, error) {
	var h phc

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return h, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &parallelism); err != nil {
		return h, fmt.Errorf("%w: parameters", ErrMalformedHash)
	}
	if h.memory < minMemoryKB || h.time < 1 || parallelism < 1 || parallelism > 255 {
		return h, fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}
	h.parallelism = uint8(parallelism)

	var err error
	if h.salt, err = decodeB64(parts[4]); err != nil || len(h.salt) < int(minSaltLength) {
		return h, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if h.key, err = decodeB64(parts[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}

// decodeB64 accepts padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
