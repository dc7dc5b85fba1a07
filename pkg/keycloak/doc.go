// Package keycloak provides a client for the Keycloak Admin REST API built on
// top of the dynamic rest.Resource.
//
// The Admin embeds the resource rooted at {server}/admin/realms/{realm}, so
// every path of the Admin API is reachable by navigation:
//
//	admin, err := keycloak.FromClientCredentials(
//		"https://sso.example.com", "acme", "admin-cli", secret, "master")
//	if err != nil {
//		return err
//	}
//
//	users, err := admin.Navigate("users").Get(ctx, url.Values{"max": {"10"}})
//
// Calls are authenticated with a bearer token obtained and refreshed by an
// auth.OpenIDConnection sharing the same HTTP client. Realms() starts at
// /admin/realms/ for the endpoints that are not scoped to the current realm.
package keycloak
