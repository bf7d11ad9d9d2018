package verification

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"code_auth/internal/auth"
	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,max=72"`
	RepeatPassword string `json:"repeat_password,omitempty" validate:"omitempty,eqfield=Password"`
}

type Response struct {
	resp.Response
	Registration bool   `json:"registration"`
	CodeID       string `json:"code_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

type Verifier interface {
	BeginVerification(ctx context.Context, email, password string) (codeID string, registration bool, err error)
}

// New godoc
// @Summary      Начало подтверждения
// @Description  Для существующего пользователя проверяет пароль, для нового проверяет длину пароля.
// @Description  При успехе отправляет на email пятизначный код и возвращает его идентификатор.
// @Description  Повторный вызов выпускает новый код (используется для повторной отправки).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  object{email=string,password=string,repeat_password=string}  true  "Учетные данные"
// @Success      200  {object}  object{status=string,registration=bool,code_id=string,message=string}
// @Failure      400  {object}  object{status=string,errors=[]string}  "Некорректный email или пароль не введен"
// @Failure      401  {object}  object{status=string,errors=[]string}  "Неверный пароль"
// @Failure      422  {object}  object{status=string,errors=[]string}  "Слабый пароль"
// @Failure      500  {object}  object{status=string,error=string}  "Не удалось отправить код"
// @Router       /api/verification [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	verifier Verifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verification.New"

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
				log.Error("failed to validate request", sl.Err(err))

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

		codeID, registration, err := verifier.BeginVerification(ctx, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrWrongPassword):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, Response{
					Response: resp.Errors(resp.MsgWrongPassword),
				})
			case errors.Is(err, auth.ErrWeakPassword):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, Response{
					Response:     resp.Errors(resp.MsgWeakPassword),
					Registration: registration,
				})
			case errors.Is(err, auth.ErrPasswordTooLong):
				render.Status(r, http.StatusUnprocessableEntity)
				render.JSON(w, r, Response{
					Response:     resp.Errors(resp.MsgPasswordTooLong),
					Registration: registration,
				})
			default:
				log.Error("failed to begin verification", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error(resp.MsgOperationFailed))
			}

			return
		}

		log.Info("confirmation code sent", slog.Bool("registration", registration))

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Registration: registration,
			CodeID:       codeID,
			Message:      resp.MsgMailHasBeenSent,
		})
	}
}
