package httpx

import (
	"crypto/subtle"
	"net/http"

	"github.com/machauth/machauth/pkg/cryptox"
)

const (
	// CSRFCookieName carries the double-submit token.
	CSRFCookieName = "__Host-csrf_token"
	// CSRFHeaderName is where callers echo the cookie value back.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFMiddleware implements double-submit-cookie CSRF protection for
// state-changing methods. Requests for which exempt returns true skip
// the check entirely; the exemption is meant for OAuth2 protocol
// endpoints, which authenticate inline with client credentials instead
// of a browser session, and must never widen beyond that set.
func CSRFMiddleware(exempt func(*http.Request) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt != nil && exempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				// Safe methods only seed the cookie.
				if _, err := r.Cookie(CSRFCookieName); err != nil {
					issueCSRFCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "missing CSRF token", http.StatusForbidden)
				return
			}

			header := r.Header.Get(CSRFHeaderName)
			if subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
				http.Error(w, "CSRF token mismatch", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func issueCSRFCookie(w http.ResponseWriter) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   true,
		HttpOnly: false, // scripts must read it to echo the header
		SameSite: http.SameSiteStrictMode,
	})
}
