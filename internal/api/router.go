package api

import (
	"log/slog"
	"net/http"
	"time"

	"account_service/internal/api/handler"
	"account_service/internal/api/middleware"
	"account_service/internal/app/service"
	"account_service/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// AccountService is everything the HTTP layer needs from service.AccountService.
type AccountService interface {
	handler.AuthService
	handler.UserService
	middleware.Authenticator
}

var _ AccountService = (*service.AccountService)(nil)

type RouterOptions struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	SecureCookies bool
}

func NewRouter(accounts AccountService, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	guard := middleware.Authenticate(accounts, opts.Logger)

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(accounts, opts.SecureCookies)
		api.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterRoutes(auth, guard)
		})

		userHandler := handler.NewUserHandler(accounts)
		api.Route("/users", func(users chi.Router) {
			userHandler.RegisterRoutes(users, guard)
		})
	})

	return r
}
