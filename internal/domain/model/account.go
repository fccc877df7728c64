package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. It is persisted as lowercase text.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

const (
	roleUserText  = "user"
	roleAdminText = "admin"
)

// String returns the canonical lowercase form used in storage, tokens and responses.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return roleAdminText
	case RoleUser:
		return roleUserText
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole maps text to a Role. Matching ignores case and surrounding space.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case roleAdminText:
		return RoleAdmin, nil
	case roleUserText:
		return RoleUser, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText keeps JSON and other encodings on the canonical text form.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Account is the durable identity record.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Verified     bool

	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time

	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetVerificationToken stores a verification token together with its expiry.
func (a *Account) SetVerificationToken(token string, expiresAt time.Time) {
	a.VerificationToken = &token
	a.VerificationTokenExpiresAt = &expiresAt
}

// MarkVerified flags the email as verified and clears the verification token.
func (a *Account) MarkVerified(now time.Time) {
	a.Verified = true
	a.VerificationToken = nil
	a.VerificationTokenExpiresAt = nil
	a.UpdatedAt = now
}

// SetResetToken stores a password reset token together with its expiry.
func (a *Account) SetResetToken(token string, expiresAt time.Time) {
	a.ResetToken = &token
	a.ResetTokenExpiresAt = &expiresAt
}

// ReplacePassword swaps the stored hash and drops any outstanding reset token.
func (a *Account) ReplacePassword(hash string, now time.Time) {
	a.PasswordHash = hash
	a.ResetToken = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = now
}
