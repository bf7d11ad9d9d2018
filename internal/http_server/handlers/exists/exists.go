package exists

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Response struct {
	resp.Response
	Exists bool `json:"exists"`
}

type UserChecker interface {
	Exists(ctx context.Context, email string) (bool, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	checker UserChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.exists.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email := chi.URLParam(r, "email")

		if err := validate.Var(email, "required,email"); err != nil {
			log.Info("invalid email", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Errors(resp.MsgIncorrectEmail))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		exists, err := checker.Exists(ctx, email)
		if err != nil {
			log.Error("failed to check user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.MsgOperationFailed))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Exists:   exists,
		})
	}
}
