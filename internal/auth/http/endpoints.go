package http

import "net/http"

// EndpointClass buckets every route the server exposes. OAuth2 protocol
// endpoints are consumed by non-browser clients that authenticate per
// request, so browser protections like CSRF must not apply to them.
// Everything else is treated as a protected resource.
type EndpointClass int

const (
	ProtectedResource EndpointClass = iota
	ProtocolEndpoint
)

func (c EndpointClass) String() string {
	switch c {
	case ProtocolEndpoint:
		return "protocol"
	case ProtectedResource:
		return "protected_resource"
	default:
		return "unknown"
	}
}

type endpointRule struct {
	method string
	path   string
	class  EndpointClass
}

// EndpointClassifier maps an incoming request to its endpoint class.
// Rules are matched in registration order; the first hit wins and
// anything unmatched defaults to ProtectedResource.
type EndpointClassifier struct {
	rules []endpointRule
}

func NewEndpointClassifier() *EndpointClassifier {
	// Health and discovery GETs outside this list stay
	// ProtectedResource on purpose: the class only drives the CSRF
	// exemption, and safe methods pass CSRF anyway, so unauthenticated
	// GET routes need no entry here.
	return &EndpointClassifier{
		rules: []endpointRule{
			{http.MethodPost, "/oauth2/token", ProtocolEndpoint},
			{http.MethodGet, "/.well-known/jwks.json", ProtocolEndpoint},
			{http.MethodGet, "/.well-known/oauth-authorization-server", ProtocolEndpoint},
		},
	}
}

func (c *EndpointClassifier) Classify(r *http.Request) EndpointClass {
	for _, rule := range c.rules {
		if r.Method == rule.method && r.URL.Path == rule.path {
			return rule.class
		}
	}
	return ProtectedResource
}

// IsProtocol is the CSRF exemption predicate: only protocol endpoints
// skip the double-submit check.
func (c *EndpointClassifier) IsProtocol(r *http.Request) bool {
	return c.Classify(r) == ProtocolEndpoint
}
