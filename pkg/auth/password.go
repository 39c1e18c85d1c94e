package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// PasswordHasher hashes passwords with argon2id
type PasswordHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher uses the library defaults when p is nil
func NewPasswordHasher(p *argon2id.Params) *PasswordHasher {
	if p == nil {
		p = argon2id.DefaultParams
	}
	return &PasswordHasher{params: p}
}

// Hash returns an encoded $argon2id$v=19$m=... string
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify compares a password with a stored hash
func (h *PasswordHasher) Verify(plain, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}
