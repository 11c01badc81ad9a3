// Package ui serves the authentication pages (sign-in, sign-up, forgot
// password) and their form actions. Pages are server-rendered; state travels
// in query parameters, so every action ends in a redirect.
package ui

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	gomponents "maragu.dev/gomponents"

	"tenantgate/internal/domain"
	"tenantgate/internal/idp"
)

// AuthClient is the slice of the provider client the pages need.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password, emailRedirectTo string) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	UpdateUser(ctx context.Context, accessToken string, fields idp.UpdateUserFields, emailRedirectTo string) (*domain.Principal, error)
	SignOut(ctx context.Context, accessToken string, scope idp.SignOutScope) error
	OAuthAuthorizeURL(provider, redirectTo, scopes string) string
}

// HealthProbe gates user-initiated auth attempts on provider liveness.
type HealthProbe interface {
	Healthy(ctx context.Context) bool
}

type Handler struct {
	AppOrigin  *url.URL
	Auth       AuthClient
	Health     HealthProbe
	Production bool
	Logger     *slog.Logger
}

func NewHandler(appOrigin *url.URL, auth AuthClient, health HealthProbe, production bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		AppOrigin:  appOrigin,
		Auth:       auth,
		Health:     health,
		Production: production,
		Logger:     logger.With("component", "auth-ui"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
