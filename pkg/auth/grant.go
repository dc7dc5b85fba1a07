package auth

import (
	"net/url"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
)

// Grant builds the form sent to the token endpoint for one OAuth2 grant type.
type Grant interface {
	// ExchangeValues returns the form of a full credential exchange.
	ExchangeValues(clientID string) url.Values
	// RefreshValues returns the form of a refresh token request.
	RefreshValues(clientID, refreshToken string) url.Values
	// Subject identifies whose token this is, for persistence keys.
	Subject() string
}

// PasswordGrant authenticates a user with the resource owner password grant.
type PasswordGrant struct {
	Username string
	Password string
}

func (g PasswordGrant) ExchangeValues(clientID string) url.Values {
	return url.Values{
		"scope":      {constants.DefaultScope},
		"grant_type": {constants.GrantTypePassword},
		"client_id":  {clientID},
		"username":   {g.Username},
		"password":   {g.Password},
	}
}

func (g PasswordGrant) RefreshValues(clientID, refreshToken string) url.Values {
	return refreshValues(clientID, refreshToken)
}

func (g PasswordGrant) Subject() string {
	return constants.GrantTypePassword + ":" + g.Username
}

// ClientCredentialsGrant authenticates a confidential client.
type ClientCredentialsGrant struct {
	ClientSecret string
}

func (g ClientCredentialsGrant) ExchangeValues(clientID string) url.Values {
	return url.Values{
		"scope":         {constants.DefaultScope},
		"grant_type":    {constants.GrantTypeClientCredentials},
		"client_id":     {clientID},
		"client_secret": {g.ClientSecret},
	}
}

// RefreshValues includes the secret: confidential clients must authenticate
// on refresh too.
func (g ClientCredentialsGrant) RefreshValues(clientID, refreshToken string) url.Values {
	values := refreshValues(clientID, refreshToken)
	values.Set("client_secret", g.ClientSecret)

	return values
}

func (g ClientCredentialsGrant) Subject() string {
	return constants.GrantTypeClientCredentials
}

func refreshValues(clientID, refreshToken string) url.Values {
	return url.Values{
		"grant_type":    {constants.GrantTypeRefreshToken},
		"client_id":     {clientID},
		"refresh_token": {refreshToken},
	}
}
