package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie is the session cookie set by the login handler.
const AuthCookie = "authenticated"

// AuthToken derives the cookie value from the dashboard password, so a
// password change invalidates old cookies.
func AuthToken(password string) string {
	sum := sha256.Sum256([]byte("eppdetect:" + password))
	return hex.EncodeToString(sum[:])
}

// AuthMiddleware requires a valid auth cookie when password is set. Login,
// static assets, health and camera ingestion stay public.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}
	token := AuthToken(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			r.URL.Path == "/api/health" ||
			strings.HasPrefix(r.URL.Path, "/static/") ||
			strings.HasPrefix(r.URL.Path, "/api/camera") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || cookie.Value != token {
			// API and AJAX callers get 401, browsers are redirected
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
