package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"account_service/internal/api/middleware"
	"account_service/internal/app/dto"
	"account_service/internal/common"
	"account_service/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// AuthService is the part of service.AccountService used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterUserDto) (*model.Account, error)
	VerifyEmail(ctx context.Context, token string) (*model.Account, error)
	Login(ctx context.Context, req dto.LoginUserDto) (string, error)
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequestDto) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequestDto) error
	SessionMaxAge() time.Duration
}

type AuthHandler struct {
	authService AuthService
	secure      bool
}

// NewAuthHandler creates the handler. secure marks the session cookie Secure.
func NewAuthHandler(authService AuthService, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, secure: secure}
}

// RegisterRoutes mounts the public auth routes. guard protects logout.
func (h *AuthHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/verify", h.verifyEmail)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)

	r.With(guard).Post("/logout", h.logout)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, dto.Response{
		Status:  common.StatusSuccess,
		Message: "Registration successful! Please check your email to verify your account.",
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginUserDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	token, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.authService.SessionMaxAge().Seconds())))
	common.RespondWithJSON(w, http.StatusOK, dto.UserLoginResponseDto{Status: common.StatusSuccess, Token: token})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	common.RespondWithJSON(w, http.StatusOK, dto.Response{Status: common.StatusSuccess, Message: "Logged out successfully"})
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	query := dto.VerifyEmailQueryDto{Token: r.URL.Query().Get("token")}
	if err := dto.Check(query); err != nil {
		common.RespondWithAppError(w, err)
		return
	}

	if _, err := h.authService.VerifyEmail(r.Context(), query.Token); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dto.Response{Status: common.StatusSuccess, Message: "Email verified successfully"})
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequestDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dto.Response{
		Status:  common.StatusSuccess,
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequestDto
	if !decodeAndCheck(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, dto.Response{Status: common.StatusSuccess, Message: "Password reset successfully"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// decodeAndCheck decodes the JSON body into dst and validates it, writing the error
// response itself. It reports whether the handler may continue.
func decodeAndCheck[T dto.Validator](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := dto.Check(*dst); err != nil {
		common.RespondWithAppError(w, err)
		return false
	}
	return true
}
