// Package rest provides a small dynamic REST client.
//
// # Overview
//
// A Resource is an immutable handle on one URL plus the request configuration
// held by its Store (HTTP client, serializers, trailing slash policy and raw
// mode). Navigation never mutates a Resource: every step returns a new one.
//
//	api, err := rest.New("https://kc.example.com/admin/realms/demo",
//	  rest.WithAppendSlash(false),
//	  rest.WithAuth(conn),
//	)
//	if err != nil { log.Fatal(err) }
//
//	// GET https://kc.example.com/admin/realms/demo/users/42/role-mappings
//	res, err := api.Navigate("users").ID(42).Navigate("role_mappings").Get(ctx, nil)
//
// Underscores in navigated segments are rewritten to hyphens. Segments that
// start with an underscore are rejected; the error is carried by the returned
// Resource and reported by the next verb call (see Resource.Err).
//
// # Bodies and content types
//
// Request bodies are encoded with the first registered serializer (JSON by
// default) unless files are attached, in which case a multipart body is sent.
// Responses are decoded by the serializer matching their Content-Type; bodies
// with an unknown or missing content type are returned as text, and bodies that
// are not valid UTF-8 are returned as raw bytes.
//
// # Errors
//
// 4xx responses produce a *ClientError (matching ErrNotFound for 404) and 5xx
// responses a *ServerError. Helpers such as IsNotFound, IsClientError and
// IsServerError make branching easy.
package rest
