package me

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"code_auth/internal/http_server/middleware/authn"
	resp "code_auth/internal/lib/api/response"
	"code_auth/internal/lib/jwt"
	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[int64]models.User

func (f fakeUsers) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func TestMe(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	tokens := jwt.New("access", "refresh", time.Hour, 24*time.Hour)

	pair, err := tokens.Issue(1)
	require.NoError(t, err)

	h := authn.New(log, tokens)(New(log, fakeUsers{1: {ID: 1, Email: "a@x.com"}}))

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var out Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, out.User)
	assert.Equal(t, "a@x.com", out.User.Email)
}

func TestMe_DeletedUser(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	tokens := jwt.New("access", "refresh", time.Hour, 24*time.Hour)

	pair, err := tokens.Issue(2)
	require.NoError(t, err)

	h := authn.New(log, tokens)(New(log, fakeUsers{}))

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var out Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{resp.MsgUserNotFound}, out.Errors)
}

func TestMe_WithoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	New(slog.New(slog.DiscardHandler), fakeUsers{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
