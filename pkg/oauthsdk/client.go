package oauthsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal machine-to-machine client for the token
// endpoint. Services that need an access token construct one with
// their registered credentials and call Token.
type Client struct {
	// BaseURL is the authorization server root, e.g. "https://auth.internal".
	BaseURL string

	// ClientID and ClientSecret are the registered credentials.
	ClientID     string
	ClientSecret string

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// NewClient returns a Client with sane defaults.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Token performs the client_credentials grant. Credentials travel in
// the Authorization header (HTTP Basic), which the server prefers over
// body parameters. Pass nil scopes to receive the client's full
// allowed set.
func (c *Client) Token(ctx context.Context, scopes []string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+"/oauth2/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(c.ClientID), url.QueryEscape(c.ClientSecret))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauthsdk: token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("oauthsdk: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, body)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("oauthsdk: decode token response: %w", err)
	}
	return &token, nil
}

// JWKS fetches the server's public verification keys.
func (c *Client) JWKS(ctx context.Context) (*JWKSResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.BaseURL+"/.well-known/jwks.json",
		nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauthsdk: jwks request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("oauthsdk: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, body)
	}

	var jwks JWKSResponse
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("oauthsdk: decode jwks: %w", err)
	}
	return &jwks, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// parseError turns a non-2xx response into a typed OAuth2Error,
// falling back to a generic error when the body isn't OAuth2-shaped.
func parseError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  status,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}
	return &OAuth2Error{
		StatusCode:  status,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
