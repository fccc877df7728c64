package security

import (
	"errors"
	"fmt"
	"time"

	"account_service/internal/common"
	"account_service/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the identity asserted by a verified session token.
type Principal struct {
	AccountID uuid.UUID
	Role      model.Role
}

// SessionCodec issues and verifies HS256 session tokens.
type SessionCodec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionCodec creates a codec signing with secret; tokens live for maxAge.
func NewSessionCodec(secret []byte, maxAge time.Duration) *SessionCodec {
	return &SessionCodec{secret: secret, maxAge: maxAge, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying.
func (c *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// MaxAge returns the lifetime of issued tokens.
func (c *SessionCodec) MaxAge() time.Duration { return c.maxAge }

func (c *SessionCodec) Issue(accountID uuid.UUID, role model.Role) (string, error) {
	if len(c.secret) == 0 {
		return "", common.Wrap(common.KindServerError, errors.New("session signing secret is not configured"))
	}

	issuedAt := c.now()
	claims := SessionClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", common.Wrap(common.KindServerError, err)
	}
	return signed, nil
}

func (c *SessionCodec) Verify(tokenString string) (*Principal, error) {
	if len(c.secret) == 0 {
		return nil, common.Wrap(common.KindServerError, errors.New("session signing secret is not configured"))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, common.Wrap(common.KindInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, common.Wrap(common.KindInvalidToken, err)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, common.Wrap(common.KindInvalidToken, err)
	}

	return &Principal{AccountID: id, Role: role}, nil
}
