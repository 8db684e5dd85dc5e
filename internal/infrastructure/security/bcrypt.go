package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// BcryptHasher is the credential hasher. Hashes are salted per call, so two
// hashes of the same password never match byte-for-byte.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// bcrypt only reads the first 72 bytes of a password.
const maxPasswordBytes = 72

// secret returns the bytes bcrypt actually keys on. Longer input is cut to
// 72 bytes in both Hash and Compare, the same as other bcrypt implementations
// do implicitly, so long passwords hash instead of failing.
func secret(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(secret(password), h.cost)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}
	return string(b), nil
}

// Compare returns nil on match. A malformed stored hash is a mismatch, not a panic.
func (h *BcryptHasher) Compare(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), secret(password))
}
