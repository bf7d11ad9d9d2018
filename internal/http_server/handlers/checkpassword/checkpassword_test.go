package checkpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"code_auth/internal/auth"
	resp "code_auth/internal/lib/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f fakeChecker) CheckPassword(context.Context, string, string) error { return f.err }

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMatch  bool
		wantErrors []string
		wantError  string
	}{
		{name: "match", body: `{"email":"a@x.com","password":"secret1"}`, wantStatus: http.StatusOK, wantMatch: true},
		{
			name:       "mismatch",
			body:       `{"email":"a@x.com","password":"secret2"}`,
			err:        auth.ErrWrongPassword,
			wantStatus: http.StatusUnauthorized,
			wantErrors: []string{resp.MsgWrongPassword},
		},
		{
			name:       "unknown user",
			body:       `{"email":"b@x.com","password":"secret1"}`,
			err:        auth.ErrUserNotFound,
			wantStatus: http.StatusNotFound,
			wantErrors: []string{resp.MsgUserNotFound},
		},
		{
			name:       "no password",
			body:       `{"email":"a@x.com"}`,
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{resp.MsgPasswordNotEntered},
		},
		{
			name:       "store failure",
			body:       `{"email":"a@x.com","password":"secret1"}`,
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantError:  resp.MsgOperationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.DiscardHandler), validator.New(), fakeChecker{err: tt.err})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-password", strings.NewReader(tt.body)))

			var out Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMatch, out.Match)
			assert.Equal(t, tt.wantErrors, out.Errors)
			assert.Equal(t, tt.wantError, out.Error)
		})
	}
}
