package dto

import (
	"time"

	"account_service/internal/domain/model"
)

// FilterUserDto is the public view of an account. It never carries the hash or tokens.
type FilterUserDto struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func FilterUser(a *model.Account) FilterUserDto {
	return FilterUserDto{
		ID:        a.ID.String(),
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role.String(),
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func FilterUsers(accounts []*model.Account) []FilterUserDto {
	out := make([]FilterUserDto, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, FilterUser(a))
	}
	return out
}

type UserData struct {
	User FilterUserDto `json:"user"`
}

type UserResponseDto struct {
	Status string   `json:"status"`
	Data   UserData `json:"data"`
}

type UserListResponseDto struct {
	Status  string          `json:"status"`
	Users   []FilterUserDto `json:"users"`
	Results int64           `json:"results"`
}

type UserLoginResponseDto struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
