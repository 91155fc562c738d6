package common

// AuthorizationHeaderName carries the bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// Role types known to the permission system.
const (
	RolePublic        = "public"
	RoleAuthenticated = "authenticated"
)
