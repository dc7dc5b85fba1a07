// Package auth implements the OpenID Connect token lifecycle: fetching a token
// with a password or client credentials grant, caching it, refreshing it with
// the refresh token before it expires and falling back to a full exchange
// once the refresh token has expired too.
//
// An *OpenIDConnection is a rest.TokenProvider:
//
//	conn, err := auth.NewClientCredentialsConnection(
//		"https://sso.example.com", "master", "admin-cli", secret,
//	)
//	if err != nil {
//		return err
//	}
//
//	api, err := rest.New(baseURL, rest.WithAuth(conn))
package auth
