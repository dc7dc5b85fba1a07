package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
)

// TokenProvider returns a bearer token valid for the request about to be sent.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// BearerAuth is a RoundTripper setting "Authorization: Bearer <token>" on
// every request. It holds no state besides its provider and may be shared.
type BearerAuth struct {
	Provider TokenProvider
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (a *BearerAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := a.Provider.Token(req.Context())
	if err != nil {
		// A RoundTripper must close the body even on error.
		if req.Body != nil {
			_ = req.Body.Close()
		}

		return nil, fmt.Errorf("failed to obtain bearer token: %w", err)
	}

	authed := req.Clone(req.Context())
	authed.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)

	return a.base().RoundTrip(authed)
}

func (a *BearerAuth) base() http.RoundTripper {
	if a.Base != nil {
		return a.Base
	}

	return http.DefaultTransport
}

// WithBearerAuth returns a copy of client whose transport authenticates every
// request with provider. client is left untouched.
func WithBearerAuth(client *http.Client, provider TokenProvider) *http.Client {
	if client == nil {
		client = &http.Client{}
	}

	authed := *client
	authed.Transport = &BearerAuth{Provider: provider, Base: client.Transport}

	return &authed
}

// WithoutAuth returns a client sharing everything with client except any
// BearerAuth layers at the top of its transport chain.
func WithoutAuth(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{}
	}

	transport := client.Transport

	stripped := false

	for {
		auth, ok := transport.(*BearerAuth)
		if !ok {
			break
		}

		transport = auth.Base
		stripped = true
	}

	if !stripped {
		return client
	}

	plain := *client
	plain.Transport = transport

	return &plain
}
