package handler

import (
	"context"
	"net/http"
	"strconv"

	"account_service/internal/api/middleware"
	"account_service/internal/app/dto"
	"account_service/internal/common"
	"account_service/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UserService is the part of service.AccountService used by UserHandler.
type UserService interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	ListAccounts(ctx context.Context, q dto.RequestQueryDto) ([]*model.Account, int64, error)
	UpdateName(ctx context.Context, actor *model.Account, targetID uuid.UUID, req dto.NameUpdateDto) (*model.Account, error)
	UpdateRole(ctx context.Context, actor *model.Account, targetID uuid.UUID, req dto.RoleUpdateDto) (*model.Account, error)
	ChangePassword(ctx context.Context, actor *model.Account, req dto.UserPasswordUpdateDto) error
}

type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes mounts the account routes. Every route requires guard; listing and
// role changes also require an admin.
func (h *UserHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Group(func(authed chi.Router) {
		authed.Use(guard)
		authed.Get("/me", h.getMe)
		authed.Put("/name", h.updateName)
		authed.Put("/password", h.updatePassword)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Get("/", h.listUsers)
			admin.Put("/{userID}/role", h.updateRole)
		})
	})
}

func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
		return
	}

	account, err := h.userService.GetAccount(r.Context(), actor.ID)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	respondWithUser(w, account)
}

func (h *UserHandler) updateName(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
		return
	}

	var req dto.NameUpdateDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	account, err := h.userService.UpdateName(r.Context(), actor, actor.ID, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	respondWithUser(w, account)
}

func (h *UserHandler) updatePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
		return
	}

	var req dto.UserPasswordUpdateDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), actor, req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dto.Response{Status: common.StatusSuccess, Message: "Password updated successfully"})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	query, err := parseRequestQuery(r)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	if err := dto.Check(query); err != nil {
		common.RespondWithAppError(w, err)
		return
	}

	accounts, total, err := h.userService.ListAccounts(r.Context(), query)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dto.UserListResponseDto{
		Status:  common.StatusSuccess,
		Users:   dto.FilterUsers(accounts),
		Results: total,
	})
}

func (h *UserHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req dto.RoleUpdateDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	account, err := h.userService.UpdateRole(r.Context(), actor, targetID, req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	respondWithUser(w, account)
}

func respondWithUser(w http.ResponseWriter, account *model.Account) {
	common.RespondWithJSON(w, http.StatusOK, dto.UserResponseDto{
		Status: common.StatusSuccess,
		Data:   dto.UserData{User: dto.FilterUser(account)},
	})
}

// parseRequestQuery reads page and limit. Non-numeric values fail like out-of-range ones.
func parseRequestQuery(r *http.Request) (dto.RequestQueryDto, error) {
	var q dto.RequestQueryDto
	fields := map[string]string{}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err != nil {
			fields["page"] = "page must be at least 1"
		} else {
			q.Page = &page
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err != nil {
			fields["limit"] = "limit must be between 1 and 50"
		} else {
			q.Limit = &limit
		}
	}

	if len(fields) > 0 {
		return q, &common.ValidationError{Fields: fields}
	}
	return q, nil
}
