package keycloak

import (
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/kcadmin/pkg/auth"
	"github.com/fivetwenty-io/kcadmin/pkg/rest"
	"github.com/fivetwenty-io/kcadmin/pkg/tokencache"
)

// Config holds everything needed to build an Admin.
type Config struct {
	// ServerURL is the Keycloak base URL, e.g. https://sso.example.com.
	// A missing scheme defaults to https.
	ServerURL string `mapstructure:"server_url"`

	// Realm is the realm administered by the Admin API calls.
	Realm string `mapstructure:"realm"`

	// AuthenticationRealm is the realm the credentials belong to. Defaults
	// to Realm.
	AuthenticationRealm string `mapstructure:"authentication_realm"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`

	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
	Debug          bool          `mapstructure:"debug"`

	// TokenCache is dialed by New when Persister is nil.
	TokenCache tokencache.Config `mapstructure:"token_cache"`

	HTTPClient *http.Client   `mapstructure:"-"`
	Logger     rest.Logger    `mapstructure:"-"`
	Persister  auth.Persister `mapstructure:"-"`
}

func (c *Config) authenticationRealm() string {
	if c.AuthenticationRealm != "" {
		return c.AuthenticationRealm
	}

	return c.Realm
}

// grant picks the grant from the configured credentials. A client secret
// wins over a username and password.
func (c *Config) grant() (auth.Grant, bool) {
	switch {
	case c.ClientSecret != "":
		return auth.ClientCredentialsGrant{ClientSecret: c.ClientSecret}, true
	case c.Username != "" && c.Password != "":
		return auth.PasswordGrant{Username: c.Username, Password: c.Password}, true
	default:
		return nil, false
	}
}

func normalizeServerURL(serverURL string) string {
	serverURL = strings.TrimSuffix(serverURL, "/")
	if serverURL != "" && !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		serverURL = "https://" + serverURL
	}

	return serverURL
}
