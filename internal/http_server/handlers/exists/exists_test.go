package exists

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	resp "code_auth/internal/lib/api/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	known map[string]bool
	err   error
}

func (f fakeChecker) Exists(_ context.Context, email string) (bool, error) {
	return f.known[email], f.err
}

func serve(t *testing.T, checker UserChecker, email string) (int, Response) {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/api/exists/{email}", New(slog.New(slog.DiscardHandler), validator.New(), checker))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exists/"+email, nil))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return rec.Code, body
}

func TestExists(t *testing.T) {
	checker := fakeChecker{known: map[string]bool{"a@x.com": true}}

	tests := []struct {
		name       string
		email      string
		wantStatus int
		wantExists bool
		wantErrors []string
	}{
		{name: "known", email: "a@x.com", wantStatus: http.StatusOK, wantExists: true},
		{name: "unknown", email: "b@x.com", wantStatus: http.StatusOK},
		{name: "malformed", email: "nope", wantStatus: http.StatusBadRequest, wantErrors: []string{resp.MsgIncorrectEmail}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serve(t, checker, tt.email)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantExists, body.Exists)
			assert.Equal(t, tt.wantErrors, body.Errors)
		})
	}
}

func TestExists_StoreFailure(t *testing.T) {
	status, body := serve(t, fakeChecker{err: errors.New("db down")}, "a@x.com")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, resp.StatusError, body.Status)
	assert.Equal(t, resp.MsgOperationFailed, body.Error)
}
