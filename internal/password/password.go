// Package password is the only place plaintext credentials are
// handled. It produces salted bcrypt hashes and verifies candidates
// against them; plaintext never leaves this boundary.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"userhub/internal/model"
)

const (
	// MinLength is the minimum accepted plaintext length.
	MinLength = 6

	// MaxLength is bcrypt's input cap; longer inputs are silently
	// truncated by the algorithm, so they are rejected instead.
	MaxLength = 72
)

// Hasher hashes and verifies passwords with a fixed work factor.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside
// bcrypt's supported range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext. bcrypt embeds a
// fresh random salt per call, so two hashes of the same input differ.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := Validate(plaintext); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A
// malformed hash is never an error, just a failed match. Comparison is
// constant-time inside bcrypt.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Validate checks plaintext against the accepted format. Length is
// measured in bytes because that is what bcrypt consumes.
func Validate(plaintext string) error {
	if len(plaintext) < MinLength {
		return fmt.Errorf("%w: must be at least %d characters", model.ErrInvalidPasswordFormat, MinLength)
	}
	if len(plaintext) > MaxLength {
		return fmt.Errorf("%w: must be at most %d bytes", model.ErrInvalidPasswordFormat, MaxLength)
	}
	return nil
}
