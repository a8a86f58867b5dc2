package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen mirrors the min=8 binding on the registration and
// reset-confirm payloads. Hash enforces it again so a caller that
// bypasses request binding still can't store a shorter credential.
const MinPasswordLen = 8

var ErrPasswordTooShort = errors.New("password too short")

// PasswordHasher hashes credentials at rest and verifies login attempts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher. An out-of-range cost
// falls back to bcrypt.DefaultCost; tests pass bcrypt.MinCost to keep
// fixtures fast.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
