package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/fivetwenty-io/kcadmin/pkg/rest"
	"golang.org/x/sync/singleflight"
)

// Connection provides bearer tokens. It satisfies rest.TokenProvider.
type Connection interface {
	Token(ctx context.Context) (string, error)
}

var _ rest.TokenProvider = (*OpenIDConnection)(nil)

// Option configures an OpenIDConnection.
type Option func(*OpenIDConnection)

// WithHTTPClient sets the client used to reach the token endpoint. Any
// BearerAuth layer on it is skipped for token requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OpenIDConnection) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRefreshTimeout sets how long a returned token must stay valid.
// Non-positive values keep the default.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *OpenIDConnection) {
		if timeout > 0 {
			c.refreshTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger rest.Logger) Option {
	return func(c *OpenIDConnection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *OpenIDConnection) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPersister shares tokens through persister.
func WithPersister(persister Persister) Option {
	return func(c *OpenIDConnection) {
		c.persister = persister
	}
}

// OpenIDConnection fetches and refreshes tokens from an OpenID Connect token
// endpoint. Concurrent Token calls are safe; calls needing a new token share
// a single request.
type OpenIDConnection struct {
	serverURL      string
	realm          string
	clientID       string
	grant          Grant
	client         *http.Client
	refreshTimeout time.Duration
	logger         rest.Logger
	now            func() time.Time
	persister      Persister
	cacheKey       string

	store    *TokenStore
	group    singleflight.Group
	seedOnce sync.Once
}

// NewOpenIDConnection creates a connection for grant against realm on
// serverURL.
func NewOpenIDConnection(serverURL, realm, clientID string, grant Grant, opts ...Option) (*OpenIDConnection, error) {
	switch {
	case serverURL == "":
		return nil, constants.ErrServerURLRequired
	case realm == "":
		return nil, constants.ErrRealmRequired
	case clientID == "":
		return nil, constants.ErrClientIDRequired
	case grant == nil:
		return nil, ErrGrantRequired
	}

	conn := &OpenIDConnection{
		serverURL:      serverURL,
		realm:          realm,
		clientID:       clientID,
		grant:          grant,
		refreshTimeout: constants.TokenExpirationBuffer,
		logger:         rest.NopLogger{},
		now:            time.Now,
		store:          NewTokenStore(),
	}

	for _, opt := range opts {
		opt(conn)
	}

	if conn.client == nil {
		conn.client = rest.DefaultSession()
	}

	conn.cacheKey = CacheKey(conn.TokenURL(), clientID, grant.Subject())

	return conn, nil
}

// NewPasswordConnection creates a connection using the password grant.
func NewPasswordConnection(serverURL, realm, clientID, username, password string, opts ...Option) (*OpenIDConnection, error) {
	return NewOpenIDConnection(serverURL, realm, clientID, PasswordGrant{Username: username, Password: password}, opts...)
}

// NewClientCredentialsConnection creates a connection using the client
// credentials grant.
func NewClientCredentialsConnection(serverURL, realm, clientID, clientSecret string, opts ...Option) (*OpenIDConnection, error) {
	return NewOpenIDConnection(serverURL, realm, clientID, ClientCredentialsGrant{ClientSecret: clientSecret}, opts...)
}

// ServerURL returns the Keycloak server URL.
func (c *OpenIDConnection) ServerURL() string { return c.serverURL }

// RealmName returns the realm authenticated against.
func (c *OpenIDConnection) RealmName() string { return c.realm }

// ClientID returns the OAuth2 client ID.
func (c *OpenIDConnection) ClientID() string { return c.clientID }

// Grant returns the credential grant.
func (c *OpenIDConnection) Grant() Grant { return c.grant }

// HTTPClient returns the client shared with API resources.
func (c *OpenIDConnection) HTTPClient() *http.Client { return c.client }

// RefreshTimeout returns the minimum validity of returned tokens.
func (c *OpenIDConnection) RefreshTimeout() time.Duration { return c.refreshTimeout }

// CacheKey returns the key used with the persister.
func (c *OpenIDConnection) CacheKey() string { return c.cacheKey }

// TokenURL returns the token endpoint.
func (c *OpenIDConnection) TokenURL() string {
	return fmt.Sprintf(constants.TokenEndpointFormat, c.serverURL, c.realm)
}

// Current returns the cached token, or nil.
func (c *OpenIDConnection) Current() *Token {
	return c.store.Get()
}

// SetToken replaces the cached token.
func (c *OpenIDConnection) SetToken(token *Token) {
	c.store.Set(token)
}

// Token returns an access token valid for at least the refresh timeout,
// fetching or refreshing it first when needed.
func (c *OpenIDConnection) Token(ctx context.Context) (string, error) {
	c.seed(ctx)

	if token := c.store.Get(); c.usable(token) {
		return token.AccessToken, nil
	}

	token, err := c.shared(ctx, func(ctx context.Context) (*Token, error) {
		// Another caller may have finished a fetch while we waited.
		if token := c.store.Get(); c.usable(token) {
			return token, nil
		}

		return c.fetch(ctx)
	})
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// Refresh fetches a new token regardless of the cached one, using the
// refresh token when it is still valid.
func (c *OpenIDConnection) Refresh(ctx context.Context) error {
	_, err := c.shared(ctx, c.fetch)

	return err
}

// shared runs fn once for all concurrent callers. fn does not see the
// starting caller's cancellation; each caller stops waiting on its own ctx.
func (c *OpenIDConnection) shared(ctx context.Context, fn func(context.Context) (*Token, error)) (*Token, error) {
	results := c.group.DoChan("token", func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)

		if c.client.Timeout > 0 {
			var cancel context.CancelFunc

			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.client.Timeout)
			defer cancel()
		}

		return fn(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for token: %w", ctx.Err())
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}

		token, _ := result.Val.(*Token)

		return token, nil
	}
}

func (c *OpenIDConnection) usable(token *Token) bool {
	return token != nil && !token.ExpiresWithin(c.now(), c.refreshTimeout)
}

func (c *OpenIDConnection) fetch(ctx context.Context) (*Token, error) {
	// Pinned before the request so its latency is not counted as validity.
	now := c.now()

	form := c.grant.ExchangeValues(c.clientID)
	if current := c.store.Get(); current != nil && current.HasRefreshToken(now) {
		c.logger.Debug("Refreshing token", map[string]interface{}{"token_url": c.TokenURL()})
		form = c.grant.RefreshValues(c.clientID, current.RefreshToken)
	} else {
		c.logger.Debug("Fetching token", map[string]interface{}{"token_url": c.TokenURL()})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set(constants.HeaderContentType, constants.FormContentType)
	req.Header.Set(constants.HeaderAccept, "application/json")

	// The token request must not go through our own bearer hook.
	resp, err := rest.WithoutAuth(c.client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		authErr := &AuthenticationError{Response: resp}
		_ = json.Unmarshal(body, authErr)

		return nil, authErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenRequestError{StatusCode: resp.StatusCode, URL: c.TokenURL(), Body: body}
	}

	token, err := ParseToken(body, now)
	if err != nil {
		return nil, err
	}

	c.store.Set(token)
	c.persist(ctx, token)

	c.logger.Debug("Token acquired", map[string]interface{}{
		"expires_in":         token.ExpiresIn,
		"refresh_expires_in": token.RefreshExpiresIn,
	})

	return token, nil
}
