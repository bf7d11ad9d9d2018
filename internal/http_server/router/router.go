package router

import (
	"log/slog"
	"time"

	"code_auth/internal/http_server/handlers/checkpassword"
	"code_auth/internal/http_server/handlers/confirm"
	"code_auth/internal/http_server/handlers/exists"
	"code_auth/internal/http_server/handlers/logout"
	"code_auth/internal/http_server/handlers/me"
	"code_auth/internal/http_server/handlers/refresh"
	"code_auth/internal/http_server/handlers/verification"
	"code_auth/internal/http_server/middleware/authn"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

// Auth этапы подтверждения по коду.
type Auth interface {
	exists.UserChecker
	verification.Verifier
	checkpassword.PasswordChecker
	confirm.Confirmer
}

type Sessions interface {
	refresh.Refresher
	logout.SessionCloser
}

type Options struct {
	RefreshTTL   time.Duration
	SecureCookie bool
}

// * New собирает все маршруты сервиса под /api.
func New(
	log *slog.Logger,
	authService Auth,
	sessions Sessions,
	users me.UserProvider,
	verifier authn.AccessVerifier,
	opts Options,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/exists/{email}", exists.New(log, validate, authService))
		r.Post("/verification", verification.New(log, validate, authService))
		r.Post("/check-password", checkpassword.New(log, validate, authService))
		r.Post("/confirm", confirm.New(log, validate, authService, opts.RefreshTTL, opts.SecureCookie))
		r.Post("/refresh", refresh.New(log, sessions, opts.RefreshTTL, opts.SecureCookie))
		r.Post("/logout", logout.New(log, sessions, opts.SecureCookie))

		r.With(authn.New(log, verifier)).Get("/me", me.New(log, users))
	})

	return r
}
