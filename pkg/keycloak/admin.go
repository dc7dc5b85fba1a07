package keycloak

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	internalhttp "github.com/fivetwenty-io/kcadmin/internal/http"
	"github.com/fivetwenty-io/kcadmin/pkg/auth"
	"github.com/fivetwenty-io/kcadmin/pkg/rest"
	"github.com/fivetwenty-io/kcadmin/pkg/tokencache"
)

// Admin is a Keycloak Admin API client scoped to one realm.
type Admin struct {
	*rest.Resource

	conn   *auth.OpenIDConnection
	closer io.Closer
}

// New creates an Admin from config. When config.Persister is nil and a
// token cache is configured, the cache is dialed and closed by Close.
func New(ctx context.Context, config *Config) (*Admin, error) {
	if config == nil {
		return nil, constants.ErrConfigRequired
	}

	serverURL := normalizeServerURL(config.ServerURL)
	if serverURL == "" {
		return nil, constants.ErrServerURLRequired
	}

	if config.Realm == "" {
		return nil, constants.ErrRealmRequired
	}

	grant, ok := config.grant()
	if !ok {
		return nil, constants.ErrNoCredentials
	}

	logger := config.Logger
	if logger == nil {
		logger = rest.NopLogger{}
	}

	client := config.HTTPClient
	if client == nil {
		client = newSession(config, logger)
	}

	opts := []auth.Option{
		auth.WithHTTPClient(client),
		auth.WithLogger(logger),
		auth.WithRefreshTimeout(config.RefreshTimeout),
	}

	var closer io.Closer

	persister := config.Persister
	if persister == nil {
		cache, err := tokencache.New(ctx, config.TokenCache)
		if err != nil {
			return nil, fmt.Errorf("failed to open token cache: %w", err)
		}

		if cache != nil {
			persister = cache
			closer = cache
		}
	}

	if persister != nil {
		opts = append(opts, auth.WithPersister(persister))
	}

	conn, err := auth.NewOpenIDConnection(serverURL, config.authenticationRealm(), config.ClientID, grant, opts...)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}

		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	admin, err := Create(conn, config.Realm)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}

		return nil, err
	}

	admin.closer = closer

	return admin, nil
}

func newSession(config *Config, logger rest.Logger) *http.Client {
	opts := []internalhttp.Option{
		internalhttp.WithLogger(logger),
		internalhttp.WithDebug(config.Debug),
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.Timeout))
	}

	return internalhttp.NewSession(opts...)
}

// Create returns an Admin for realm authenticated by conn. An empty realm
// means the connection's realm. The connection's HTTP client is shared for
// Admin API calls.
func Create(conn *auth.OpenIDConnection, realm string, opts ...rest.Option) (*Admin, error) {
	if conn == nil {
		return nil, constants.ErrConnectionRequired
	}

	if realm == "" {
		realm = conn.RealmName()
	}

	opts = append(opts,
		rest.WithHTTPClient(conn.HTTPClient()),
		rest.WithAuth(conn),
		rest.WithAppendSlash(false),
	)

	resource, err := rest.New(fmt.Sprintf(constants.AdminRealmFormat, conn.ServerURL(), realm), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin resource: %w", err)
	}

	return &Admin{Resource: resource, conn: conn}, nil
}

// FromClientCredentials creates an Admin for realm using the client
// credentials grant. authRealm is the realm holding the client; empty means
// realm.
func FromClientCredentials(serverURL, realm, clientID, clientSecret, authRealm string, opts ...auth.Option) (*Admin, error) {
	if authRealm == "" {
		authRealm = realm
	}

	conn, err := auth.NewClientCredentialsConnection(serverURL, authRealm, clientID, clientSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return Create(conn, realm)
}

// FromUsernamePassword creates an Admin for realm using the password grant.
// authRealm is the realm holding the user; empty means realm.
func FromUsernamePassword(serverURL, realm, clientID, username, password, authRealm string, opts ...auth.Option) (*Admin, error) {
	if authRealm == "" {
		authRealm = realm
	}

	conn, err := auth.NewPasswordConnection(serverURL, authRealm, clientID, username, password, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return Create(conn, realm)
}

// Connection returns the connection authenticating the Admin.
func (a *Admin) Connection() *auth.OpenIDConnection { return a.conn }

// BaseURL returns the Admin API URL including the realm.
func (a *Admin) BaseURL() string { return a.Store().BaseURL() }

// RealmName returns the realm the Admin API calls apply to.
func (a *Admin) RealmName() string {
	_, realm, _ := strings.Cut(a.BaseURL(), constants.RealmsSeparator)

	return realm
}

// WithRealm returns an Admin for another realm sharing the same connection.
func (a *Admin) WithRealm(realm string) *Admin {
	return &Admin{
		Resource: rest.NewResource(a.Store().WithBaseURL(a.realmsURL() + realm)),
		conn:     a.conn,
		closer:   a.closer,
	}
}

// Realms returns the resource rooted at /admin/realms/, e.g.
// Realms().Get lists all realms and Realms().Navigate("other", "users")
// reaches the users of another realm.
func (a *Admin) Realms() *rest.Resource {
	return rest.NewResource(a.Store().WithBaseURL(a.realmsURL()))
}

func (a *Admin) realmsURL() string {
	server, _, _ := strings.Cut(a.BaseURL(), constants.RealmsSeparator)

	return server + constants.RealmsSeparator
}

// Close releases the token cache opened by New, if any.
func (a *Admin) Close() error {
	if a.closer == nil {
		return nil
	}

	return a.closer.Close()
}
