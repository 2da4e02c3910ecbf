// Package auth guards HTTP endpoints with JWT bearer authentication.
//
// An Authenticator validates the credentials of an AuthRequest. The JWT
// authenticator checks signature, expiry, issuer and audience and builds an
// Identity from the token claims. Guard turns an Authenticator into HTTP
// middleware that attaches the Identity to the request context.
//
//	authn := auth.NewJWTAuthenticator(auth.JWTConfig{Issuer: "ops"},
//	    auth.NewStaticKeyProvider(secret))
//	r.With(auth.Guard(authn, auth.RequireRole("ops"))).Get("/health", h)
package auth
