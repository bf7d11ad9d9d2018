package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"code_auth/internal/lib/api/cookie"
	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/session"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	RefreshToken string `json:"refresh_token"`
}

type Response struct {
	resp.Response
	Verified     bool       `json:"verified"`
	User         *resp.User `json:"user,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
}

type Refresher interface {
	Refresh(ctx context.Context, presented string) (session.Result, error)
}

// New godoc
// @Summary      Обновление токенов
// @Description  Берет refresh токен из cookie (или из тела запроса), проверяет его
// @Description  и совпадение с сохраненным у пользователя, затем выдает новую пару.
// @Description  Невалидный токен не является ошибкой: возвращается verified=false.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body  object{refresh_token=string}  false  "Refresh токен, если cookie не передан"
// @Success      200  {object}  object{status=string,verified=bool,user=object,access_token=string,refresh_token=string}
// @Failure      500  {object}  object{status=string,error=string}
// @Router       /api/refresh [post]
func New(
	log *slog.Logger,
	refresher Refresher,
	refreshTTL time.Duration,
	secureCookie bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token, err := PresentedToken(r)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(resp.MsgInvalidRequest))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := refresher.Refresh(ctx, token)
		if err != nil {
			log.Error("failed to refresh tokens", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.MsgOperationFailed))

			return
		}

		if !res.Verified {
			render.JSON(w, r, Response{Response: resp.OK()})

			return
		}

		cookie.SetRefreshToken(w, res.Tokens.RefreshToken, refreshTTL, secureCookie)

		log.Info("Tokens refreshed successfully", slog.Int64("uid", res.User.ID))

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Verified:     true,
			User:         resp.UserView(res.User),
			AccessToken:  res.Tokens.AccessToken,
			RefreshToken: res.Tokens.RefreshToken,
		})
	}
}

// PresentedToken возвращает refresh токен из cookie, а если его нет, то из тела запроса.
// Пустое тело не считается ошибкой.
func PresentedToken(r *http.Request) (string, error) {
	if token := cookie.RefreshToken(r); token != "" {
		return token, nil
	}

	var req Request

	err := render.DecodeJSON(r.Body, &req)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	return req.RefreshToken, nil
}
