package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"code_auth/internal/lib/api/cookie"
	resp "code_auth/internal/lib/api/response"
	"code_auth/internal/lib/jwt"
	"code_auth/internal/models"
	"code_auth/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	valid     string
	err       error
	presented string
}

func (f *fakeRefresher) Refresh(_ context.Context, presented string) (session.Result, error) {
	f.presented = presented
	if f.err != nil {
		return session.Result{}, f.err
	}
	if presented == "" || presented != f.valid {
		return session.Result{}, nil
	}

	return session.Result{
		Verified: true,
		User:     models.User{ID: 1, Email: "a@x.com"},
		Tokens:   jwt.TokenPair{AccessToken: "at2", RefreshToken: "rt2"},
	}, nil
}

func do(t *testing.T, f *fakeRefresher, r *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	New(slog.New(slog.DiscardHandler), f, time.Hour, false).ServeHTTP(rec, r)

	var out Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return rec, out
}

func TestRefresh_FromCookie(t *testing.T) {
	f := &fakeRefresher{valid: "rt1"}

	r := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	r.AddCookie(&http.Cookie{Name: cookie.RefreshTokenName, Value: "rt1"})

	rec, out := do(t, f, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, out.Verified)
	assert.Equal(t, "at2", out.AccessToken)
	assert.Equal(t, "rt2", out.RefreshToken)
	require.NotNil(t, out.User)
	assert.Equal(t, "a@x.com", out.User.Email)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "rt2", cookies[0].Value)
}

func TestRefresh_FromBody(t *testing.T) {
	f := &fakeRefresher{valid: "rt1"}

	r := httptest.NewRequest(http.MethodPost, "/api/refresh", strings.NewReader(`{"refresh_token":"rt1"}`))

	_, out := do(t, f, r)

	assert.True(t, out.Verified)
	assert.Equal(t, "rt1", f.presented)
}

func TestRefresh_NotVerified(t *testing.T) {
	for name, r := range map[string]*http.Request{
		"no token":    httptest.NewRequest(http.MethodPost, "/api/refresh", nil),
		"stale token": httptest.NewRequest(http.MethodPost, "/api/refresh", strings.NewReader(`{"refresh_token":"old"}`)),
	} {
		t.Run(name, func(t *testing.T) {
			rec, out := do(t, &fakeRefresher{valid: "rt1"}, r)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, out.Verified)
			assert.Nil(t, out.User)
			assert.Empty(t, out.AccessToken)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestRefresh_StoreFailure(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/refresh", strings.NewReader(`{"refresh_token":"rt1"}`))

	rec, out := do(t, &fakeRefresher{err: errors.New("db down")}, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, resp.MsgOperationFailed, out.Error)
}

func TestPresentedToken_CookieWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/refresh", strings.NewReader(`{"refresh_token":"body"}`))
	r.AddCookie(&http.Cookie{Name: cookie.RefreshTokenName, Value: "cookie"})

	token, err := PresentedToken(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie", token)
}
