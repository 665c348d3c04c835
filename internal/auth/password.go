package auth

// PASSWORD HASHES:
// bcrypt salts every call, so hashing the same password twice gives two
// different strings. The salt and the cost live inside the hash:
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^10 rounds)
//	 version
//
// Fixture passwords are hashed with the configured cost when seeded.

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
// It matches the salt rounds the existing seeded accounts were hashed with.
const DefaultCost = 10

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification.
//
// The cost is injected; tests use bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given cost.
// A cost outside bcrypt's accepted range falls back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Cost returns the work factor new hashes are generated with.
func (p *PasswordService) Cost() int {
	return p.cost
}

// Hash hashes the given plaintext password with bcrypt. Every call draws a
// fresh salt, so hashing the same input twice yields two different strings.
//
// Returns an error if the plaintext is longer than 72 bytes (a bcrypt limit
// that would otherwise silently truncate the password).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil on a match, ErrInvalidPassword on a mismatch, and a wrapped
// error when the stored hash itself is unusable (empty or corrupt).
//
// bcrypt.CompareHashAndPassword does the comparison in constant time, so the
// response time does not reveal how much of the password was right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Matches is the boolean form of Verify.
func (p *PasswordService) Matches(hash, plaintext string) bool {
	return p.Verify(hash, plaintext) == nil
}
