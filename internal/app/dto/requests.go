package dto

import (
	"errors"
	"math"

	"account_service/internal/domain/model"

	validation "github.com/go-ozzo/ozzo-validation"
)

// MaxNameLength matches the width of the name column.
const MaxNameLength = 100

type RegisterUserDto struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r RegisterUserDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, required("Name is required"), maxRunes(MaxNameLength, "Name must be at most 100 characters")),
		validation.Field(&r.Email, required("Email is required"), email("Email is invalid")),
		validation.Field(&r.Password, minRunes(6, "Password must be at least 6 characters")),
		validation.Field(
			&r.PasswordConfirm,
			required("Confirm Password is required"),
			equals(r.Password, "passwords do not match"),
		),
	)
}

type LoginUserDto struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginUserDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, required("Email is required"), email("Email is invalid")),
		validation.Field(&r.Password, minRunes(6, "Password must be at least 6 characters")),
	)
}

// RequestQueryDto is the paging query of list endpoints. Both fields are optional.
type RequestQueryDto struct {
	Page  *int `json:"page"`
	Limit *int `json:"limit"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

func (r RequestQueryDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Page, intRange(1, 0, "page must be at least 1")),
		validation.Field(&r.Limit, intRange(1, MaxLimit, "limit must be between 1 and 50")),
	)
}

// Offset returns the number of rows before the requested page. It saturates at
// math.MaxInt32 instead of overflowing, which yields an empty page.
func (r RequestQueryDto) Offset() int {
	page, limit := r.PageOrDefault(), r.LimitOrDefault()
	if page <= 1 {
		return 0
	}
	if page-1 > math.MaxInt32/limit {
		return math.MaxInt32
	}
	return (page - 1) * limit
}

// PageOrDefault returns the requested page, or DefaultPage when absent.
func (r RequestQueryDto) PageOrDefault() int {
	if r.Page == nil {
		return DefaultPage
	}
	return *r.Page
}

// LimitOrDefault returns the requested limit, or DefaultLimit when absent.
func (r RequestQueryDto) LimitOrDefault() int {
	if r.Limit == nil {
		return DefaultLimit
	}
	return *r.Limit
}

type NameUpdateDto struct {
	Name string `json:"name"`
}

func (r NameUpdateDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, required("Name is required"), maxRunes(MaxNameLength, "Name must be at most 100 characters")),
	)
}

// RoleUpdateDto carries the role as raw text so out-of-range values reach validation.
type RoleUpdateDto struct {
	Role string `json:"role"`
}

func (r RoleUpdateDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if _, err := model.ParseRole(s); err != nil {
				return errors.New("invalid role")
			}
			return nil
		})),
	)
}

type UserPasswordUpdateDto struct {
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
	OldPassword        string `json:"old_password"`
}

func (r UserPasswordUpdateDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, minRunes(6, "new password must be at least 6 characters")),
		validation.Field(
			&r.NewPasswordConfirm,
			minRunes(6, "new password confirm must be at least 6 characters"),
			equals(r.NewPassword, "new passwords do not match"),
		),
		validation.Field(&r.OldPassword, minRunes(6, "Old password must be at least 6 characters")),
	)
}

type VerifyEmailQueryDto struct {
	Token string `json:"token"`
}

func (r VerifyEmailQueryDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, required("Token is required")),
	)
}

type ForgotPasswordRequestDto struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequestDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, required("Email is required"), email("Email is invalid")),
	)
}

type ResetPasswordRequestDto struct {
	Token              string `json:"token"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (r ResetPasswordRequestDto) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, required("Token is required")),
		validation.Field(&r.NewPassword, minRunes(6, "New password must be at least 6 characters")),
		validation.Field(
			&r.NewPasswordConfirm,
			minRunes(6, "New password confirm must be at least 6 characters"),
			equals(r.NewPassword, "new passwords do not match"),
		),
	)
}
