package security

import (
	"strings"
	"testing"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_DefaultCostWhenNonPositive(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(0)
	if h == nil {
		t.Fatalf("expected hasher, got nil")
	}
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected cost=%d, got %d", bcrypt.DefaultCost, h.cost)
	}
}

func TestBcryptHasher_HashAndCompare_Success(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4) // lower cost for test speed
	pw := "P@ssw0rd123!"

	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if hash == pw {
		t.Fatalf("hash should not equal plaintext")
	}

	if err := h.Compare(hash, pw); err != nil {
		t.Fatalf("compare should succeed, got %v", err)
	}
}

func TestBcryptHasher_Compare_WrongPassword_Fails(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	hash, err := h.Hash("correct-password")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}

	if err := h.Compare(hash, "wrong-password"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestBcryptHasher_Hash_TooHighCost_ReturnsDomainHashFailed(t *testing.T) {
	t.Parallel()

	// bcrypt will error if cost is out of range; use an invalid cost > 31.
	h := NewBcryptHasher(100)

	_, err := h.Hash("pw")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !domain.Is(err, "hash_failed") {
		t.Fatalf("expected hash_failed, got %v", err)
	}
}

func TestBcryptHasher_SamePassword_DistinctHashes(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	a, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	b, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if a == b {
		t.Fatalf("expected salted hashes to differ")
	}
	if h.Compare(a, "secret1") != nil || h.Compare(b, "secret1") != nil {
		t.Fatalf("both hashes must verify")
	}
}

func TestBcryptHasher_Compare_MalformedHash_Fails(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	if err := h.Compare("not-a-bcrypt-hash", "pw"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := h.Compare("", "pw"); err == nil {
		t.Fatalf("expected error for empty hash, got nil")
	}
}

func TestBcryptHasher_LongPassword_HashesAndVerifies(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	long := strings.Repeat("p", 80)

	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("expected long password to hash, got %v", err)
	}
	if err := h.Compare(hash, long); err != nil {
		t.Fatalf("long password must verify against its own hash, got %v", err)
	}
	if err := h.Compare(hash, strings.Repeat("q", 80)); err == nil {
		t.Fatalf("different long password must not verify")
	}
}

func TestBcryptHasher_LongPassword_OnlyFirst72BytesCount(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	prefix := strings.Repeat("a", 72)

	hash, err := h.Hash(prefix + "first-tail")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if err := h.Compare(hash, prefix+"other-tail"); err != nil {
		t.Fatalf("bytes past 72 must be ignored, got %v", err)
	}
	if err := h.Compare(hash, prefix[:71]); err == nil {
		t.Fatalf("a shorter prefix must not verify")
	}
}
