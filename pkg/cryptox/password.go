package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used when callers pass a
// non-positive cost. Kept above bcrypt.DefaultCost floor so offline
// brute force stays expensive.
const DefaultHashCost = 12

// MinHashCost is the lowest cost HashPassword accepts, for tests that
// need cheap hashing.
const MinHashCost = bcrypt.MinCost

// HashPassword hashes a plaintext password with bcrypt at the given
// cost. The salt is generated internally by bcrypt.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultHashCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt
// digest. A malformed digest is treated as a mismatch, never an error;
// callers should not be able to distinguish the two.
func VerifyPassword(password, encodedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false
	}
	// Malformed hash, wrong version, truncated input: all mismatches.
	return false
}
