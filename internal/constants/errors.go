package constants

import "errors"

// Configuration errors.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrConnectionRequired    = errors.New("connection is required")
	ErrServerURLRequired     = errors.New("server URL is required")
	ErrRealmRequired         = errors.New("realm is required")
	ErrClientIDRequired      = errors.New("client ID is required")
	ErrNoCredentials         = errors.New("no credentials configured: set a client secret or a username and password")
	ErrUnknownCacheBackend   = errors.New("unknown token cache backend")
	ErrCacheAddressRequired  = errors.New("token cache address is required")
	ErrUnknownOutputFormat   = errors.New("unknown output format")
	ErrPasswordPromptFailure = errors.New("failed to read password")
)
