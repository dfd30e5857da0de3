package middleware

import (
	"net/http"
	"strings"
	"time"
)

// Token carriers. The access token rides the Authorization header inbound
// and the X-Access-Token header outbound after a renewal; the refresh token
// rides an HTTP-only cookie both ways.
const (
	AccessTokenHeader = "X-Access-Token"
	RefreshCookieName = "refresh_token"
)

// AccessTokenFromRequest extracts the bearer token, or "" when absent.
func AccessTokenFromRequest(r *http.Request) string {
	const bearer = "Bearer "
	value := r.Header.Get("Authorization")
	if !strings.HasPrefix(value, bearer) {
		return ""
	}
	return value[len(bearer):]
}

// RefreshTokenFromRequest extracts the refresh cookie value, or "" when
// absent.
func RefreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteTokenPair attaches a fresh access+refresh pair to the response: the
// access token in the [AccessTokenHeader] header, the refresh token in the
// HTTP-only refresh cookie.
func WriteTokenPair(w http.ResponseWriter, accessToken, refreshToken string, refreshTTL time.Duration) {
	w.Header().Set(AccessTokenHeader, accessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(refreshTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie expires the refresh cookie on the client.
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
