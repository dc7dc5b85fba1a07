package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
)

// Token is an OAuth2 token response. It is never modified after creation;
// a fetch or refresh replaces it entirely.
type Token struct {
	AccessToken      string    `json:"access_token"`
	ExpiresIn        int64     `json:"expires_in"`
	Scope            string    `json:"scope,omitempty"`
	TokenType        string    `json:"token_type,omitempty"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64     `json:"refresh_expires_in,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// tokenResponse detects missing required fields.
type tokenResponse struct {
	AccessToken      *string `json:"access_token"`
	ExpiresIn        *int64  `json:"expires_in"`
	Scope            string  `json:"scope"`
	TokenType        string  `json:"token_type"`
	RefreshToken     string  `json:"refresh_token"`
	RefreshExpiresIn int64   `json:"refresh_expires_in"`
}

// ParseToken decodes a token endpoint response. createdAt should be the
// instant before the request was sent. Unknown fields are ignored.
func ParseToken(data []byte, createdAt time.Time) (*Token, error) {
	var resp tokenResponse

	err := json.Unmarshal(data, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	if resp.AccessToken == nil {
		return nil, fmt.Errorf("%w: missing access_token", ErrMalformedToken)
	}

	if resp.ExpiresIn == nil {
		return nil, fmt.Errorf("%w: missing expires_in", ErrMalformedToken)
	}

	token := &Token{
		AccessToken:      *resp.AccessToken,
		ExpiresIn:        *resp.ExpiresIn,
		Scope:            resp.Scope,
		TokenType:        resp.TokenType,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresIn: resp.RefreshExpiresIn,
		CreatedAt:        createdAt,
	}

	err = token.Validate()
	if err != nil {
		return nil, err
	}

	return token, nil
}

// Validate checks that a refresh token always comes with its lifetime.
func (t *Token) Validate() error {
	if t.RefreshToken != "" && t.RefreshExpiresIn == 0 {
		return ErrMissingRefreshExpiry
	}

	return nil
}

// ExpiresAt returns when the access token expires.
func (t *Token) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// RefreshExpiresAt returns when the refresh token expires. The second value
// is false when there is no refresh token.
func (t *Token) RefreshExpiresAt() (time.Time, bool) {
	if t.RefreshToken == "" {
		return time.Time{}, false
	}

	return t.CreatedAt.Add(time.Duration(t.RefreshExpiresIn) * time.Second), true
}

// HasRefreshToken reports whether the refresh token can still be used at now,
// keeping a two second safety margin.
func (t *Token) HasRefreshToken(now time.Time) bool {
	expiresAt, ok := t.RefreshExpiresAt()
	if !ok {
		return false
	}

	return now.Before(expiresAt.Add(-constants.RefreshTokenSafetyMargin))
}

// ExpiresWithin reports whether the access token expires less than margin
// after now.
func (t *Token) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return now.After(t.ExpiresAt().Add(-margin))
}

// LastsUntil returns the later of the access and refresh token expiries.
func (t *Token) LastsUntil() time.Time {
	expiresAt := t.ExpiresAt()
	if refreshAt, ok := t.RefreshExpiresAt(); ok && refreshAt.After(expiresAt) {
		return refreshAt
	}

	return expiresAt
}
