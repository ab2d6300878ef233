// Package auth implements password hashing, token issuance and
// verification, and the register/login/refresh/logout flows.
package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// DefaultBcryptCost keeps a single verification in the 50-150 ms range on
// commodity hardware.
const DefaultBcryptCost = 12

// PasswordHasher wraps bcrypt with a configurable work factor. The salt is
// embedded per-hash in the bcrypt string; comparison is constant-time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher. A cost outside bcrypt's valid range
// falls back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// rejectedPasswords are never acceptable regardless of composition.
var rejectedPasswords = map[string]bool{
	"password": true,
	"123456":   true,
	"qwerty":   true,
}

// CheckPasswordPolicy enforces the minimum policy: at least 8 characters,
// at least one letter and one digit, and none of the rejected words or
// simple variants of the email local-part.
func CheckPasswordPolicy(password, email string) error {
	if len(password) < 8 {
		return apperr.E(apperr.Invalid, "password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperr.E(apperr.Invalid, "password must contain at least one letter and one digit")
	}

	lower := strings.ToLower(password)
	for word := range rejectedPasswords {
		if strings.Contains(lower, word) {
			return apperr.E(apperr.Invalid, "password is too common")
		}
	}
	if local, _, found := strings.Cut(strings.ToLower(email), "@"); found && len(local) >= 3 {
		if strings.Contains(lower, local) {
			return apperr.E(apperr.Invalid, "password must not contain your email name")
		}
	}
	return nil
}
