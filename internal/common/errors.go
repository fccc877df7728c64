package common

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind is the closed set of domain failures an account operation can report.
type ErrorKind int

const (
	KindServerError ErrorKind = iota
	KindEmptyPassword
	KindExceededMaxPasswordLength
	KindHashingError
	KindInvalidToken
	KindWrongCredentials
	KindEmailExist
	KindUserNoLongerExist
	KindTokenNotProvided
	KindPermissionDenied
	KindUserNotAuthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptyPassword:
		return "EmptyPassword"
	case KindExceededMaxPasswordLength:
		return "ExceededMaxPasswordLength"
	case KindHashingError:
		return "HashingError"
	case KindInvalidToken:
		return "InvalidToken"
	case KindWrongCredentials:
		return "WrongCredentials"
	case KindEmailExist:
		return "EmailExist"
	case KindUserNoLongerExist:
		return "UserNoLongerExist"
	case KindTokenNotProvided:
		return "TokenNotProvided"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUserNotAuthenticated:
		return "UserNotAuthenticated"
	default:
		return "ServerError"
	}
}

// AppError is a domain error. Its message is fixed per kind and safe to show to clients;
// the optional cause is kept for logs only.
type AppError struct {
	Kind ErrorKind
	// Length is set only for KindExceededMaxPasswordLength. Bytes marks it as a
	// byte count rather than a character count.
	Length int
	Bytes  bool
	cause  error
}

func (e *AppError) Error() string {
	switch e.Kind {
	case KindEmptyPassword:
		return "Password is required"
	case KindExceededMaxPasswordLength:
		if e.Bytes {
			return fmt.Sprintf("Password must be at most %d bytes long", e.Length)
		}
		return fmt.Sprintf("Password must be at most %d characters long", e.Length)
	case KindHashingError:
		return "Error occurred while hashing password"
	case KindInvalidToken:
		return "Invalid token"
	case KindWrongCredentials:
		return "Wrong credentials"
	case KindEmailExist:
		return "Email already exists"
	case KindUserNoLongerExist:
		return "User no longer exists"
	case KindTokenNotProvided:
		return "Token not provided"
	case KindPermissionDenied:
		return "Permission denied"
	case KindUserNotAuthenticated:
		return "User not authenticated"
	default:
		return "Internal server error"
	}
}

// Is matches on kind, so errors.Is(err, ErrInvalidToken) holds for any wrapped InvalidToken.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

func (e *AppError) Unwrap() error { return e.cause }

var (
	ErrEmptyPassword        = &AppError{Kind: KindEmptyPassword}
	ErrHashingError         = &AppError{Kind: KindHashingError}
	ErrInvalidToken         = &AppError{Kind: KindInvalidToken}
	ErrServerError          = &AppError{Kind: KindServerError}
	ErrWrongCredentials     = &AppError{Kind: KindWrongCredentials}
	ErrEmailExist           = &AppError{Kind: KindEmailExist}
	ErrUserNoLongerExist    = &AppError{Kind: KindUserNoLongerExist}
	ErrTokenNotProvided     = &AppError{Kind: KindTokenNotProvided}
	ErrPermissionDenied     = &AppError{Kind: KindPermissionDenied}
	ErrUserNotAuthenticated = &AppError{Kind: KindUserNotAuthenticated}
)

// ExceededMaxPasswordLength reports a password longer than max characters.
func ExceededMaxPasswordLength(max int) *AppError {
	return &AppError{Kind: KindExceededMaxPasswordLength, Length: max}
}

// ExceededMaxPasswordBytes reports a password whose encoding is longer than max bytes.
func ExceededMaxPasswordBytes(max int) *AppError {
	return &AppError{Kind: KindExceededMaxPasswordLength, Length: max, Bytes: true}
}

// Wrap attaches an internal cause to a kind.
func Wrap(kind ErrorKind, cause error) *AppError {
	return &AppError{Kind: kind, cause: cause}
}

// AsAppError returns the AppError in err's chain, or a ServerError carrying err.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindServerError, err)
}

// ValidationError carries per-field messages produced by request validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}

	switch AsAppError(err).Kind {
	case KindEmptyPassword, KindExceededMaxPasswordLength, KindWrongCredentials:
		return http.StatusBadRequest
	case KindInvalidToken, KindTokenNotProvided, KindUserNotAuthenticated, KindUserNoLongerExist:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindEmailExist:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
