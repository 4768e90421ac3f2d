package company

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password storage modes.
const (
	PasswordModeBcrypt    = "bcrypt"
	PasswordModePlaintext = "plaintext"
)

// PasswordHasher turns a password into its stored form and checks a
// candidate against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(stored, candidate string) bool
}

// NewPasswordHasher returns the hasher for a PASSWORD_MODE value.
func NewPasswordHasher(mode string) (PasswordHasher, error) {
	switch mode {
	case PasswordModeBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case PasswordModePlaintext:
		return PlaintextHasher{}, nil
	default:
		return nil, fmt.Errorf("company: unknown password mode %q", mode)
	}
}

// BcryptHasher stores salted bcrypt hashes of the password's SHA-256 digest.
// bcrypt only accepts 72 bytes, so the digest keeps longer passwords usable.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Matches(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), prehash(candidate)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// PlaintextHasher stores passwords verbatim. Only for compatibility testing.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextHasher) Matches(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}
