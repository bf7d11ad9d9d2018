package checkpassword

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
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Match bool `json:"match"`
}

type PasswordChecker interface {
	CheckPassword(ctx context.Context, email, password string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	checker PasswordChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.checkpassword.New"

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

		err = checker.CheckPassword(ctx, req.Email, req.Password)
		switch {
		case err == nil:
			render.JSON(w, r, Response{
				Response: resp.OK(),
				Match:    true,
			})
		case errors.Is(err, auth.ErrWrongPassword):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, Response{
				Response: resp.Errors(resp.MsgWrongPassword),
			})
		case errors.Is(err, auth.ErrUserNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, Response{
				Response: resp.Errors(resp.MsgUserNotFound),
			})
		default:
			log.Error("failed to check password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.MsgOperationFailed))
		}
	}
}
