package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"account_service/internal/common"
)

// TokenBytes is the entropy of a minted token: 32 bytes, 64 hex characters.
const TokenBytes = 32

// MintToken returns an opaque random token and its absolute UTC expiry.
func MintToken(ttl time.Duration, now time.Time) (string, time.Time, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, common.Wrap(common.KindServerError, err)
	}
	return hex.EncodeToString(buf), now.UTC().Add(ttl), nil
}

// CheckToken accepts candidate only if it equals the stored token and the stored
// expiry is after now. A missing token or expiry is invalid.
func CheckToken(candidate string, stored *string, expiresAt *time.Time, now time.Time) error {
	if stored == nil || expiresAt == nil || candidate == "" {
		return common.ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(*stored)) != 1 {
		return common.ErrInvalidToken
	}
	if !expiresAt.After(now) {
		return common.ErrInvalidToken
	}
	return nil
}
