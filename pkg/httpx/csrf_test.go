package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFBlocksPostWithoutToken(t *testing.T) {
	t.Parallel()

	h := Chain(okHandler(), CSRFMiddleware(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/resource", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFAllowsMatchingDoubleSubmit(t *testing.T) {
	t.Parallel()

	h := Chain(okHandler(), CSRFMiddleware(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/resource", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "tok-123"})
	req.Header.Set(CSRFHeaderName, "tok-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsMismatchedToken(t *testing.T) {
	t.Parallel()

	h := Chain(okHandler(), CSRFMiddleware(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/resource", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "tok-123"})
	req.Header.Set(CSRFHeaderName, "tok-456")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFExemptionSkipsCheck(t *testing.T) {
	t.Parallel()

	exempt := func(r *http.Request) bool {
		return r.URL.Path == "/oauth2/token"
	}
	h := Chain(okHandler(), CSRFMiddleware(exempt))

	// Exempt path passes with no cookie and no header.
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Any other path is still protected.
	req = httptest.NewRequest(http.MethodPost, "/v1/resource", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFSeedsCookieOnGet(t *testing.T) {
	t.Parallel()

	h := Chain(okHandler(), CSRFMiddleware(nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/resource", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CSRFCookieName, cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
}
