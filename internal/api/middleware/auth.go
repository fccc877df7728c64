package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"account_service/internal/common"
	"account_service/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const AccountCtxKey contextKey = "account"

// TokenCookieName is the cookie set by login and read as a bearer fallback.
const TokenCookieName = "token"

// Authenticator resolves a session token to its account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Account, error)
}

// TokenFromRequest reads the bearer token from the Authorization header, then from
// the token cookie.
func TokenFromRequest(r *http.Request) string {
	if token := jwtauth.TokenFromHeader(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate rejects requests without a valid session and stores the account in the
// request context. Missing and invalid tokens are both reported as UserNotAuthenticated.
func Authenticate(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := auth.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				switch {
				case errors.Is(err, common.ErrTokenNotProvided), errors.Is(err, common.ErrInvalidToken):
					logger.DebugContext(r.Context(), "request not authenticated", "reason", err.Error())
					common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
				case errors.Is(err, common.ErrUserNoLongerExist):
					common.RespondWithAppError(w, err)
				default:
					logger.ErrorContext(r.Context(), "failed to authenticate request", "error", err)
					common.RespondWithAppError(w, err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), AccountCtxKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFromContext(r.Context())
		if !ok {
			common.RespondWithAppError(w, common.ErrUserNotAuthenticated)
			return
		}
		if account.Role != model.RoleAdmin {
			common.RespondWithAppError(w, common.ErrPermissionDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountFromContext returns the account stored by Authenticate.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	account, ok := ctx.Value(AccountCtxKey).(*model.Account)
	return account, ok && account != nil
}

// WithAccount stores account in ctx the way Authenticate does.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, AccountCtxKey, account)
}
