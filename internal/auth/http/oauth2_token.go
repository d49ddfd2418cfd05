package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/oauthsdk"
	"github.com/machauth/machauth/pkg/slogx"
)

// TokenHandler serves POST /oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	ExchangeService *service.ExchangeService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues JWT access tokens using the client_credentials grant.
//	@Description	Clients authenticate with HTTP Basic auth or with client_id/client_secret form fields; Basic auth takes precedence.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials)
//	@Param			client_id		formData	string					false	"Client identifier (when not using Basic auth)"
//	@Param			client_secret	formData	string					false	"Client secret (when not using Basic auth)"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Success		200				{object}	oauthsdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	oauthsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	oauthsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	oauthsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Router			/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauthsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		oauthsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	clientID, clientSecret, err := clientCredentials(r)
	if err != nil {
		oauthsdk.ErrInvalidClient.WriteError(w)
		return
	}
	if clientID == "" {
		oauthsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	grantType := r.PostForm.Get("grant_type")
	requested := httpx.SplitScopes(r.PostForm.Get("scope"))

	h.handleClientCredentialsGrant(w, r, clientID, clientSecret, grantType, requested)
}

func (h *TokenHandler) handleClientCredentialsGrant(
	w http.ResponseWriter,
	r *http.Request,
	clientID, clientSecret, grantType string,
	requestedScopes []string,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	tok, err := h.ExchangeService.ExchangeClientCredentials(ctx, clientID, clientSecret, grantType, requestedScopes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			oauthsdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrUnsupportedGrantType):
			oauthsdk.ErrUnsupportedGrantType.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			oauthsdk.ErrInvalidScope.WriteError(w)
		default:
			log.Error("client_credentials grant failed", "err", err)
			oauthsdk.ErrServerError.WriteError(w)
		}
		return
	}

	response := oauthsdk.TokenResponse{
		AccessToken: tok.Value,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn(),
		Scope:       strings.Join(tok.GrantedScopes, " "),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

var errMalformedBasicAuth = errors.New("malformed basic authorization header")

// hasBasicAuth reports whether the request carries a Basic
// Authorization header at all, decodable or not. The scheme token is
// case-insensitive per RFC 7235.
func hasBasicAuth(r *http.Request) bool {
	const prefix = "basic "
	authz := r.Header.Get("Authorization")
	return len(authz) >= len(prefix) && strings.EqualFold(authz[:len(prefix)], prefix)
}

// clientCredentials extracts the client's credentials from the request.
// A present Basic Authorization header always wins over form fields,
// including when it cannot be decoded: a garbled header is an
// authentication failure, never a fallback to body credentials. Basic
// credentials are application/x-www-form-urlencoded encoded per
// RFC 6749 section 2.3.1, so both halves are URL-decoded after the
// base64 step.
func clientCredentials(r *http.Request) (clientID, clientSecret string, err error) {
	if hasBasicAuth(r) {
		id, secret, ok := r.BasicAuth()
		if !ok {
			return "", "", errMalformedBasicAuth
		}
		decodedID, err := url.QueryUnescape(id)
		if err != nil {
			return "", "", errMalformedBasicAuth
		}
		decodedSecret, err := url.QueryUnescape(secret)
		if err != nil {
			return "", "", errMalformedBasicAuth
		}
		return decodedID, decodedSecret, nil
	}

	return r.PostForm.Get("client_id"), r.PostForm.Get("client_secret"), nil
}
