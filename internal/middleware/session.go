package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"tenantgate/internal/domain"
)

// Provider token cookie names. The session is never trusted from the cookie
// alone: the access token is re-verified against the provider on each request.
const (
	AccessTokenCookie  = "sb_access_token"
	RefreshTokenCookie = "sb_refresh_token"
)

// UserResolver verifies an access token with the identity provider.
type UserResolver interface {
	GetUser(ctx context.Context, accessToken string) (*domain.Principal, error)
}

// Session returns middleware that derives the principal and session from the
// access-token cookie. Derivation is best-effort: a missing or rejected token
// leaves the request unauthenticated and lets the flow handlers decide what an
// anonymous visitor may do.
func Session(resolver UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.GetUser(r.Context(), cookie.Value)
			if err != nil {
				logger.Debug("access token rejected",
					"key", "session:token_rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			session := domain.Session{AccessToken: cookie.Value, User: *principal}
			if refresh, err := r.Cookie(RefreshTokenCookie); err == nil {
				session.RefreshToken = refresh.Value
			}

			ctx := domain.WithPrincipal(r.Context(), *principal)
			ctx = domain.WithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
