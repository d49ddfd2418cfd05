package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/internal/auth/store/drivers/memory"
	"github.com/machauth/machauth/pkg/cryptox"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/oauthsdk"
	"github.com/machauth/machauth/pkg/slogx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-pepper-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

const testIssuer = "https://auth.test"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
	})
	require.NoError(t, err)

	st := memory.New()
	clients := &service.ClientService{Store: st}

	ctx := context.Background()
	_, err = clients.Register(ctx, service.RegisterParams{
		ClientID: "my-client",
		Secret:   "my-secret",
		Scopes:   []string{"openid"},
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	_, err = clients.Register(ctx, service.RegisterParams{
		ClientID: "infra-client",
		Secret:   "infra-secret",
		Scopes:   []string{"openid", "client:read"},
		TokenTTL: 30 * time.Minute,
	})
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "machauth-test", Level: "error", Format: "text"})

	r := NewRouter(km.KeySet, km.Verifier, testIssuer, "test", st, logger)
	r.ExchangeService = &service.ExchangeService{
		Clients: clients,
		Tokens: &service.TokenService{
			KeyManager: km,
			Issuer:     testIssuer,
		},
	}
	r.ApplyRoutes()
	return r
}

// postToken sends a form-encoded token request. basicID/basicSecret go
// into the Authorization header when non-empty.
func postToken(t *testing.T, router *Router, form url.Values, basicID, basicSecret string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicID != "" {
		req.SetBasicAuth(url.QueryEscape(basicID), url.QueryEscape(basicSecret))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) oauthsdk.TokenResponse {
	t.Helper()

	var resp oauthsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) oauthsdk.ErrorResponse {
	t.Helper()

	var resp oauthsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestTokenEndpointBasicAuthHappyPath(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "my-client", "my-secret")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	resp := decodeToken(t, rec)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, 3600, resp.ExpiresIn)
	require.Equal(t, "openid", resp.Scope)
}

func TestTokenEndpointBodyCredentials(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"my-client"},
		"client_secret": {"my-secret"},
		"scope":         {"openid"},
	}
	rec := postToken(t, router, form, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeToken(t, rec)
	require.Equal(t, "openid", resp.Scope)
}

// The Authorization header wins over body credentials when both are sent.
func TestTokenEndpointBasicAuthTakesPrecedence(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"my-client"},
		"client_secret": {"my-secret"},
	}
	rec := postToken(t, router, form, "my-client", "wrong-secret")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeError(t, rec).Error)
}

func TestTokenEndpointWrongSecret(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "my-client", "wrong")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeError(t, rec).Error)
}

func TestTokenEndpointUnknownClient(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "ghost", "whatever")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeError(t, rec).Error)
}

func TestTokenEndpointUnsupportedGrantType(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"authorization_code"}}
	rec := postToken(t, router, form, "my-client", "my-secret")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unsupported_grant_type", decodeError(t, rec).Error)
}

func TestTokenEndpointInvalidScope(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"admin billing"},
	}
	rec := postToken(t, router, form, "my-client", "my-secret")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_scope", decodeError(t, rec).Error)
}

// A request that is wrong on both counts reports the grant type, not
// the scope.
func TestTokenEndpointGrantTypeBeforeScope(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{
		"grant_type": {"password"},
		"scope":      {"admin"},
	}
	rec := postToken(t, router, form, "my-client", "my-secret")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unsupported_grant_type", decodeError(t, rec).Error)
}

func TestTokenEndpointMissingClientID(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeError(t, rec).Error)
}

func TestTokenEndpointRejectsWrongContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(`{"grant_type":"client_credentials"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("my-client", "my-secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeError(t, rec).Error)
}

// Basic auth credentials are URL-decoded after the base64 step, so a
// secret with reserved characters still authenticates.
func TestTokenEndpointBasicAuthURLDecoding(t *testing.T) {
	router := newTestRouter(t)

	clients := router.ExchangeService.Clients
	_, err := clients.Register(context.Background(), service.RegisterParams{
		ClientID: "odd client+id",
		Secret:   "s3cr3t&with=chars",
		Scopes:   []string{"openid"},
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "odd client+id", "s3cr3t&with=chars")
	require.Equal(t, http.StatusOK, rec.Code)
}

// Percent-encoding that does not decode makes the Basic header
// malformed, which is an authentication failure, not a bad request.
func TestTokenEndpointMalformedBasicPercentEncoding(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("my-client", "%zz-not-percent-encoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeError(t, rec).Error)
}

// A garbled Basic header must not fall back to body credentials, even
// valid ones.
func TestTokenEndpointGarbledBasicHeaderNoBodyFallback(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"my-client"},
		"client_secret": {"my-secret"},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth2/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic !!!not-base64!!!")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_client", decodeError(t, rec).Error)
}

// The token endpoint must never require a CSRF token even though the
// global chain enforces CSRF everywhere else.
func TestTokenEndpointExemptFromCSRF(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "my-client", "my-secret")

	require.Equal(t, http.StatusOK, rec.Code)

	// same POST against a non-protocol path is blocked by CSRF
	req := httptest.NewRequest(http.MethodPost, "/v1/clientinfo", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClientInfoFlow(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "infra-client", "infra-secret")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeToken(t, rec).AccessToken

	req := httptest.NewRequest(http.MethodGet, "/v1/clientinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info oauthsdk.ClientInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "infra-client", info.ClientID)
	require.Equal(t, []string{"openid", "client:read"}, info.Scopes)
	require.Equal(t, 1800, info.TokenTTL)
}

func TestClientInfoRequiresBearer(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/clientinfo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestClientInfoRequiresScope(t *testing.T) {
	router := newTestRouter(t)

	// my-client has openid only, not client:read
	form := url.Values{"grant_type": {"client_credentials"}}
	rec := postToken(t, router, form, "my-client", "my-secret")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeToken(t, rec).AccessToken

	req := httptest.NewRequest(http.MethodGet, "/v1/clientinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWKSEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var jwks oauthsdk.JWKSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.NotEmpty(t, jwks.Keys)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
}

func TestMetadataEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var meta oauthsdk.MetadataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	require.Equal(t, testIssuer, meta.Issuer)
	require.Equal(t, testIssuer+"/oauth2/token", meta.TokenEndpoint)
	require.Equal(t, testIssuer+"/.well-known/jwks.json", meta.JWKSURI)
	require.Equal(t, []string{"client_credentials"}, meta.GrantTypesSupported)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)

		var health oauthsdk.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		require.Equal(t, "ok", health.Status)
	}
}

func TestTokenEndpointRateLimited(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"grant_type": {"client_credentials"}}

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = postToken(t, router, form, "my-client", "my-secret")
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.NotEmpty(t, last.Header().Get("Retry-After"))

	body, err := io.ReadAll(last.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "rate limit")
}
