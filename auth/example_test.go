package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/lifeops/auth"
)

func ExampleNewJWTAuthenticator() {
	// Create a JWT authenticator with static key
	keyProvider := auth.NewStaticKeyProvider([]byte("my-secret-key"))
	authenticator := auth.NewJWTAuthenticator(auth.JWTConfig{
		Issuer:         "https://example.com",
		Audience:       "my-api",
		PrincipalClaim: "sub",
		RolesClaim:     "roles",
	}, keyProvider)

	fmt.Println("Authenticator name:", authenticator.Name())
	// Output:
	// Authenticator name: jwt
}

func ExampleWithIdentity() {
	// Create an identity
	identity := &auth.Identity{
		Principal: "user@example.com",
		Roles:     []string{"admin", "user"},
		Method:    auth.AuthMethodJWT,
	}

	// Attach to context
	ctx := auth.WithIdentity(context.Background(), identity)

	// Retrieve from context
	retrieved := auth.IdentityFromContext(ctx)
	fmt.Println("Principal:", retrieved.Principal)
	fmt.Println("Admin:", retrieved.HasRole("admin"))
	// Output:
	// Principal: user@example.com
	// Admin: true
}

func ExampleIdentityFromContext() {
	// Context with identity
	identity := &auth.Identity{Principal: "alice"}
	ctx := auth.WithIdentity(context.Background(), identity)
	fmt.Println("With identity:", auth.IdentityFromContext(ctx) != nil)

	// Context without identity
	emptyCtx := context.Background()
	fmt.Println("Without identity:", auth.IdentityFromContext(emptyCtx) == nil)
	// Output:
	// With identity: true
	// Without identity: true
}

func ExamplePrincipalFromContext() {
	identity := &auth.Identity{Principal: "alice@example.com"}
	ctx := auth.WithIdentity(context.Background(), identity)

	fmt.Println("Principal:", auth.PrincipalFromContext(ctx))
	// Output:
	// Principal: alice@example.com
}

func ExampleIdentity_HasRole() {
	identity := &auth.Identity{
		Principal: "alice",
		Roles:     []string{"admin", "user"},
	}

	fmt.Println("Has admin:", identity.HasRole("admin"))
	fmt.Println("Has guest:", identity.HasRole("guest"))
	// Output:
	// Has admin: true
	// Has guest: false
}

func ExampleIdentity_IsExpired() {
	// Non-expiring identity
	noExpiry := &auth.Identity{Principal: "alice"}
	fmt.Println("No expiry is expired:", noExpiry.IsExpired())

	// Future expiry
	future := &auth.Identity{
		Principal: "bob",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	fmt.Println("Future expiry is expired:", future.IsExpired())

	// Past expiry
	past := &auth.Identity{
		Principal: "charlie",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	fmt.Println("Past expiry is expired:", past.IsExpired())
	// Output:
	// No expiry is expired: false
	// Future expiry is expired: false
	// Past expiry is expired: true
}

func ExampleAnonymousIdentity() {
	anon := auth.AnonymousIdentity()

	fmt.Println("Principal:", anon.Principal)
	fmt.Println("Method:", anon.Method)
	fmt.Println("Is anonymous:", anon.IsAnonymous())
	// Output:
	// Principal: anonymous
	// Method: anonymous
	// Is anonymous: true
}

func ExampleAuthSuccess() {
	identity := &auth.Identity{
		Principal: "alice",
		Method:    auth.AuthMethodJWT,
	}

	result := auth.AuthSuccess(identity)

	fmt.Println("Authenticated:", result.Authenticated)
	fmt.Println("Method:", result.Method)
	fmt.Println("Has error:", result.Error != nil)
	// Output:
	// Authenticated: true
	// Method: jwt
	// Has error: false
}

func ExampleAuthFailure() {
	result := auth.AuthFailure(auth.ErrInvalidCredentials, "jwt")

	fmt.Println("Authenticated:", result.Authenticated)
	fmt.Println("Method:", result.Method)
	fmt.Println("Error is invalid credentials:", errors.Is(result.Error, auth.ErrInvalidCredentials))
	// Output:
	// Authenticated: false
	// Method: jwt
	// Error is invalid credentials: true
}

func ExampleNewAuthenticatorFunc() {
	// Create a custom authenticator using a function
	customAuth := auth.NewAuthenticatorFunc(
		"custom",
		func(ctx context.Context, req *auth.AuthRequest) bool {
			// Support requests with X-Custom-Auth header
			return req.GetHeader("X-Custom-Auth") != ""
		},
		func(ctx context.Context, req *auth.AuthRequest) (*auth.AuthResult, error) {
			token := req.GetHeader("X-Custom-Auth")
			if token == "valid-token" {
				return auth.AuthSuccess(&auth.Identity{
					Principal: "custom-user",
					Method:    "custom",
				}), nil
			}
			return auth.AuthFailure(auth.ErrInvalidCredentials, "custom"), nil
		},
	)

	fmt.Println("Authenticator name:", customAuth.Name())

	ctx := context.Background()
	req := &auth.AuthRequest{
		Headers: map[string][]string{
			"X-Custom-Auth": {"valid-token"},
		},
	}

	result, _ := customAuth.Authenticate(ctx, req)
	fmt.Println("Authenticated:", result.Authenticated)
	// Output:
	// Authenticator name: custom
	// Authenticated: true
}

func ExampleGuard() {
	secret := []byte("example-signing-secret")
	authn := auth.NewJWTAuthenticator(auth.JWTConfig{RolesClaim: "roles"}, auth.NewStaticKeyProvider(secret))

	report := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hello %s", auth.PrincipalFromContext(r.Context()))
	})
	h := auth.Guard(authn, auth.RequireRole("ops"))(report)

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "alice",
		"roles": []any{"ops"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)

	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/health", nil))
	fmt.Println("Anonymous:", anon.Code)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	fmt.Println("Signed:", w.Code, w.Body.String())
	// Output:
	// Anonymous: 401
	// Signed: 200 hello alice
}
