package security

import (
	"errors"
	"unicode/utf8"

	"account_service/internal/common"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest plaintext accepted, in characters. Multi-byte input
// is further bounded by MaxPasswordBytes, bcrypt's input limit.
const (
	MaxPasswordLength = 64
	MaxPasswordBytes  = 72
)

// Hasher turns plaintext passwords into bcrypt hashes.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's supported range.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the bcrypt work factor used for new hashes.
func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.ErrEmptyPassword
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return "", common.ExceededMaxPasswordLength(MaxPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return "", common.ExceededMaxPasswordBytes(MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", common.Wrap(common.KindHashingError, err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil); only a
// malformed hash is an error.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, common.Wrap(common.KindServerError, err)
}
