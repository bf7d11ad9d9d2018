package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"code_auth/internal/http_server/middleware/authn"
	resp "code_auth/internal/lib/api/response"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	User *resp.User `json:"user,omitempty"`
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

func New(log *slog.Logger, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		uid, ok := authn.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error(resp.MsgUnauthorized))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := users.UserByID(ctx, uid)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Errors(resp.MsgUserNotFound))

				return
			}

			log.Error("failed to load user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error(resp.MsgOperationFailed))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     resp.UserView(user),
		})
	}
}
