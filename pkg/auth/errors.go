package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrMalformedToken       = errors.New("malformed token response")
	ErrMissingRefreshExpiry = errors.New("missing refresh_expires_in")
	ErrGrantRequired        = errors.New("grant is required")
	ErrAuthentication       = errors.New("authentication failed")
	ErrTokenRequest         = errors.New("token request failed")
)

// AuthenticationError is returned when the token endpoint answers 401.
type AuthenticationError struct {
	ErrorCode   string         `json:"error"`
	Description string         `json:"error_description"`
	Response    *http.Response `json:"-"`
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	switch {
	case e.ErrorCode != "" && e.Description != "":
		return fmt.Sprintf("authentication failed: %s: %s", e.ErrorCode, e.Description)
	case e.ErrorCode != "":
		return "authentication failed: " + e.ErrorCode
	default:
		return "authentication failed"
	}
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// TokenRequestError is returned for any other non-2xx token endpoint status.
type TokenRequestError struct {
	StatusCode int
	URL        string
	Body       []byte
}

// Error implements the error interface.
func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("token request to %s failed with status %d: %s", e.URL, e.StatusCode, string(e.Body))
}

// Is matches ErrTokenRequest.
func (e *TokenRequestError) Is(target error) bool {
	return target == ErrTokenRequest
}

// IsAuthenticationError checks if the error is a rejected credential exchange.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
