package password

import (
	"strings"
	"testing"
)

// fastParams keeps the tests quick; production uses DefaultParams.
func fastParams() Params {
	return Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newHasher(t *testing.T, p Params) *Argon2 {
	t.Helper()
	h, err := NewArgon2(p)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newHasher(t, fastParams())

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("wrong horse", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestHashSaltsEveryCall(t *testing.T) {
	h := newHasher(t, fastParams())
	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	h := newHasher(t, fastParams())
	if _, err := h.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	h := newHasher(t, fastParams())
	for _, bad := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2hvcnQ$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$",
	} {
		if _, err := h.Verify("pw", bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewArgon2ValidatesParams(t *testing.T) {
	p := fastParams()
	p.Memory = 1024
	if _, err := NewArgon2(p); err == nil {
		t.Fatal("expected memory floor to be enforced")
	}
	p = fastParams()
	p.SaltLength = 8
	if _, err := NewArgon2(p); err == nil {
		t.Fatal("expected salt floor to be enforced")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := newHasher(t, fastParams())
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	stronger := fastParams()
	stronger.Time = 2
	strong := newHasher(t, stronger)

	if need, err := strong.NeedsRehash(hash); err != nil || !need {
		t.Fatalf("expected rehash, got need=%v err=%v", need, err)
	}
	if need, err := weak.NeedsRehash(hash); err != nil || need {
		t.Fatalf("expected no rehash, got need=%v err=%v", need, err)
	}
	if need, _ := weak.NeedsRehash("$2a$10$abcdefghijklmnopqrstuu"); !need {
		t.Fatal("expected bcrypt hashes to need rehash")
	}
}
