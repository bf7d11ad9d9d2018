package logout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"code_auth/internal/http_server/handlers/refresh"
	"code_auth/internal/lib/api/cookie"
	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/session"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
}

type SessionCloser interface {
	Logout(ctx context.Context, presented string) error
}

// New godoc
// @Summary      Выход из системы
// @Description  ## Описание
// @Description  Завершает активную сессию пользователя, инвалидируя refresh токен.
// @Description
// @Description  ### Процесс выхода:
// @Description  1. Refresh токен берется из cookie или из тела запроса
// @Description  2. Проверяется подпись и совпадение с сохраненным токеном
// @Description  3. Сохраненный токен пользователя удаляется, cookie очищается
// @Description
// @Description  ### Особенности:
// @Description  - После logout refresh токен больше нельзя использовать для получения новых access токенов
// @Description  - Access токен технически остается валидным до истечения TTL
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body  object{refresh_token=string}  false  "Refresh токен, если cookie не передан"
// @Success      200  {object}  object{status=string}  "Успешный выход из системы"
// @Failure      400  {object}  object{status=string,error=string}  "Некорректный JSON"
// @Failure      401  {object}  object{status=string,error=string}  "Невалидный или устаревший refresh токен"
// @Failure      500  {object}  object{status=string,error=string}  "Внутренняя ошибка сервера"
// @Router       /api/logout [post]
func New(
	log *slog.Logger,
	closer SessionCloser,
	secureCookie bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token, err := refresh.PresentedToken(r)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(resp.MsgInvalidRequest))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := closer.Logout(ctx, token); err != nil {
			if errors.Is(err, session.ErrInvalidCredentials) {
				log.Info("logout with invalid token")

				cookie.ClearRefreshToken(w, secureCookie)

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error(resp.MsgUnauthorized))

				return
			}

			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.MsgOperationFailed))

			return
		}

		cookie.ClearRefreshToken(w, secureCookie)

		log.Info("user logged out successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
