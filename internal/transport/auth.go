package transport

import (
	"github.com/go-resty/resty/v2"
)

// Authenticator applies a credential to an outgoing request.
type Authenticator interface {
	Apply(req *resty.Request, secret string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *resty.Request, _ string) {}

// HeaderAuth sends the secret in a request header, as Socrata app tokens
// are sent in X-App-Token.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *resty.Request, secret string) {
	if secret == "" {
		return
	}
	req.SetHeader(a.Header, secret)
}

// QueryAuth sends the secret as a query parameter, as ArcGIS tokens are
// sent in ?token=.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *resty.Request, secret string) {
	if secret == "" {
		return
	}
	req.SetQueryParam(a.Param, secret)
}
