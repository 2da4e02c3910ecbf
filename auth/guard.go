package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/lifeops/observe"
)

// GuardOption configures Guard.
type GuardOption func(*guard)

// RequireRole rejects authenticated callers without role with 403.
func RequireRole(role string) GuardOption {
	return func(g *guard) {
		g.role = role
	}
}

// WithGuardLogger sets the logger for rejected requests.
func WithGuardLogger(l observe.Logger) GuardOption {
	return func(g *guard) {
		if l != nil {
			g.logger = l
		}
	}
}

type guard struct {
	authn  Authenticator
	role   string
	logger observe.Logger
}

// Guard returns HTTP middleware that admits only requests authn accepts.
// The caller's Identity is attached to the request context.
//
// Rejections are 401 for missing or invalid credentials, 403 for a missing
// role and 500 when authn fails internally. A nil authn admits everything.
func Guard(authn Authenticator, opts ...GuardOption) func(http.Handler) http.Handler {
	g := &guard{authn: authn, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		if g.authn == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := NewAuthRequest(r)

			if !g.authn.Supports(ctx, req) {
				g.reject(w, r, http.StatusUnauthorized, ErrMissingCredentials)
				return
			}

			result, err := g.authn.Authenticate(ctx, req)
			if err != nil {
				g.logger.Error(ctx, "authentication failed", observe.F("path", req.Resource), observe.F("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !result.Authenticated {
				g.reject(w, r, http.StatusUnauthorized, result.Error)
				return
			}
			if g.role != "" && !result.Identity.HasRole(g.role) {
				g.reject(w, r, http.StatusForbidden, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}

func (g *guard) reject(w http.ResponseWriter, r *http.Request, code int, reason error) {
	if reason == nil {
		reason = ErrInvalidCredentials
	}
	g.logger.Warn(r.Context(), "request rejected",
		observe.F("path", r.URL.Path),
		observe.F("status", code),
		observe.F("error", reason),
	)
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		if errors.Is(reason, ErrMissingCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
	}
	http.Error(w, http.StatusText(code), code)
}
