package constants

import "time"

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

)

// Retry limits. Retries are disabled unless a caller opts in.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token lifecycle.
const (
	// TokenExpirationBuffer is the minimum remaining validity of a returned token.
	TokenExpirationBuffer = 30 * time.Second

	// RefreshTokenSafetyMargin is subtracted from the refresh token expiry
	// before deciding it can still be used.
	RefreshTokenSafetyMargin = 2 * time.Second

	// DefaultScope is sent with every credential exchange.
	DefaultScope = "openid"
)

// OAuth2 grant types.
const (
	GrantTypePassword          = "password"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeRefreshToken      = "refresh_token"
)

// Endpoint formats.
const (
	// TokenEndpointFormat is formatted with the server URL and the realm name.
	TokenEndpointFormat = "%s/realms/%s/protocol/openid-connect/token"

	// AdminRealmFormat is formatted with the server URL and the realm name.
	AdminRealmFormat = "%s/admin/realms/%s"

	// RealmsSeparator splits an admin base URL into server and realm parts.
	RealmsSeparator = "/realms/"
)

// HTTP headers and media types.
const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// FormContentType is used for token endpoint requests.
	FormContentType = "application/x-www-form-urlencoded"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "kcadmin-go"
)

// Token cache.
const (
	// TokenCacheKeyPrefix namespaces persisted tokens.
	TokenCacheKeyPrefix = "kcadmin.token."

	// TokenCacheKeyHashLength is the number of hex characters kept from the key hash.
	TokenCacheKeyHashLength = 32

	// DefaultNATSBucket is the JetStream key-value bucket used for tokens.
	DefaultNATSBucket = "kcadmin_tokens"
)

// Configuration.
const (
	// EnvPrefix is the prefix for configuration environment variables.
	EnvPrefix = "KCADMIN"

	// ConfigDirName is the directory under $HOME holding the configuration file.
	ConfigDirName = ".kcadmin"

	// ConfigFileName is the configuration file name without extension.
	ConfigFileName = "config"

	// ConfigFileType is the configuration file format.
	ConfigFileType = "yaml"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Token cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNATS   = "nats"
)
