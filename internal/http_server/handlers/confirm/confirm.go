package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"code_auth/internal/auth"
	"code_auth/internal/lib/api/cookie"
	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Code         int    `json:"code" validate:"required"`
	CodeID       string `json:"code_id" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,max=72"`
	Registration bool   `json:"registration"`
}

type Response struct {
	resp.Response
	Match        bool       `json:"match"`
	Message      string     `json:"message,omitempty"`
	User         *resp.User `json:"user,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
}

type Confirmer interface {
	ConfirmAndIssue(
		ctx context.Context,
		code int,
		codeID, email, password string,
		registration bool,
	) (auth.Session, error)
}

// New godoc
// @Summary      Подтверждение кода и выдача токенов
// @Description  Погашает временный код (он удаляется при любом исходе).
// @Description  При совпадении регистрирует пользователя или выполняет вход,
// @Description  выдает access и refresh токены, refresh токен также ставится в cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  object{code=int,code_id=string,email=string,password=string,registration=bool}  true  "Код и учетные данные"
// @Success      200  {object}  object{status=string,match=bool,user=object,access_token=string,refresh_token=string}
// @Failure      401  {object}  object{status=string,errors=[]string}  "Неверный пароль"
// @Failure      409  {object}  object{status=string,errors=[]string}  "Пользователь уже существует"
// @Failure      422  {object}  object{status=string,match=bool,errors=[]string}  "Неверный или уже использованный код"
// @Failure      500  {object}  object{status=string,error=string}
// @Router       /api/confirm [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	confirmer Confirmer,
	refreshTTL time.Duration,
	secureCookie bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.confirm.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(resp.MsgInvalidRequest))

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if !errors.As(err, &validateErr) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error(resp.MsgInvalidRequest))

				return
			}

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		sess, err := confirmer.ConfirmAndIssue(ctx, req.Code, req.CodeID, req.Email, req.Password, req.Registration)
		if err != nil {
			status, msg := failure(err)
			if status == http.StatusInternalServerError {
				log.Error("failed to confirm code", sl.Err(err))

				render.Status(r, status)
				render.JSON(w, r, resp.Error(msg))

				return
			}

			log.Info("confirmation rejected", sl.Err(err))

			render.Status(r, status)
			render.JSON(w, r, Response{Response: resp.Errors(msg)})

			return
		}

		cookie.SetRefreshToken(w, sess.Tokens.RefreshToken, refreshTTL, secureCookie)

		message := resp.MsgSuccessLogin
		if req.Registration {
			message = resp.MsgSuccessRegistration
		}

		log.Info("user confirmed", slog.Int64("uid", sess.User.ID))

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Match:        true,
			Message:      message,
			User:         resp.UserView(sess.User),
			AccessToken:  sess.Tokens.AccessToken,
			RefreshToken: sess.Tokens.RefreshToken,
		})
	}
}

func failure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrWrongCode):
		return http.StatusUnprocessableEntity, resp.MsgWrongCode
	case errors.Is(err, auth.ErrConfirmation):
		return http.StatusUnprocessableEntity, resp.MsgConfirmationError
	case errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized, resp.MsgWrongPassword
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, resp.MsgWeakPassword
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusUnprocessableEntity, resp.MsgPasswordTooLong
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, resp.MsgUserExists
	default:
		return http.StatusInternalServerError, resp.MsgOperationFailed
	}
}
