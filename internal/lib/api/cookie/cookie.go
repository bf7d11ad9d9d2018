package cookie

import (
	"net/http"
	"time"
)

const (
	RefreshTokenName = "refreshToken"

	refreshTokenPath = "/api"
)

// * SetRefreshToken кладет refresh токен в httpOnly cookie.
func SetRefreshToken(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenName,
		Value:    token,
		Path:     refreshTokenPath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearRefreshToken(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenName,
		Value:    "",
		Path:     refreshTokenPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func RefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshTokenName)
	if err != nil {
		return ""
	}

	return c.Value
}
