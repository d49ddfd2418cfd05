package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/oauthsdk"
	"github.com/machauth/machauth/pkg/slogx"
)

// ClientInfoHandler serves GET /v1/clientinfo, a protected resource
// that lets an authenticated client inspect its own registration. It
// doubles as the smoke test for bearer authentication: the token the
// server just issued must be accepted by the server's own verifier.
type ClientInfoHandler struct {
	Store store.Store
}

// ServeHTTP godoc
//
//	@Summary		Client Info
//	@Description	Returns the authenticated client's registration: client_id, allowed scopes, and token TTL.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	oauthsdk.ClientInfoResponse	"client_id, scopes, token_ttl, created_at"
//	@Failure		401	{object}	oauthsdk.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	oauthsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/clientinfo [get].
func (h *ClientInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := httpx.SubjectFromCtx(ctx)

	c, err := h.Store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// token subject no longer registered
			oauthsdk.ErrInvalidClient.WriteError(w)
			return
		}
		log.Error("clientinfo lookup failed", "err", err)
		oauthsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, oauthsdk.ClientInfoResponse{
		ClientID:  c.ClientID,
		Scopes:    c.Scopes,
		TokenTTL:  int(c.TokenTTL / time.Second),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	})
}
