package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "code_auth/internal/lib/api/response"
	"code_auth/internal/lib/jwt"
	sl "code_auth/internal/lib/logger"

	"github.com/go-chi/render"
)

type userIDKey struct{}

type AccessVerifier interface {
	VerifyAccess(token string) (jwt.Claims, error)
}

// UserID возвращает id пользователя, положенный в контекст middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}

// * New пропускает запрос дальше только с валидным access токеном в заголовке Authorization.
func New(log *slog.Logger, verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(slog.String("component", "middleware/authn"))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r)
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				log.Info("rejected access token", sl.Err(err))
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error(resp.MsgUnauthorized))
}
