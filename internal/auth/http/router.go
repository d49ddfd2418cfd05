package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/machauth/machauth/internal/auth/service"
	"github.com/machauth/machauth/internal/auth/store"
	"github.com/machauth/machauth/pkg/httpx"
	"github.com/machauth/machauth/pkg/jwtx"
	"github.com/machauth/machauth/pkg/slogx"

	_ "github.com/machauth/machauth/api" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	classifier   *EndpointClassifier

	store           store.Store
	ExchangeService *service.ExchangeService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		classifier:   NewEndpointClassifier(),
		store:        st,
	}

	// Global middleware chain. CSRF protects every browser-reachable
	// route; the classifier exempts only the OAuth2 protocol endpoints,
	// which authenticate per request with client credentials or a
	// bearer-verified JWKS fetch.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CSRFMiddleware(r.classifier.IsProtocol),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerWellKnown()
	r.registerClients()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			MachAuth Token Service API
//	@version		0.1.0
//	@description	OAuth2 authorization server for machine-to-machine authentication via the client_credentials grant.
//	@description
//	@description				Access tokens are signed JWTs and can be verified against the JWKS endpoint.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /oauth2/token - strict rate limit by IP (authentication attempts)
	tokenHandler := &TokenHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("POST /oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	// Public discovery endpoints with high limits
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/oauth-authorization-server",
		httpx.Chain(MetadataHandler(r.issuer),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientInfoHandler{Store: r.store}

	// Authenticated endpoint - verify JWT then enforce scopes
	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("client:read"),
		httpx.RateLimitByIP(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/clientinfo", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
