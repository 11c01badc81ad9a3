// Package api implements the auth flow orchestrators: the OAuth/OTP callback,
// the email-link confirm, the dashboard tenant entry, and the sandbox
// shortcut. Each handler composes the identity client, the team resolver, and
// the tenant cookie writer into one redirect state machine.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"tenantgate/internal/domain"
	"tenantgate/internal/idp"
	"tenantgate/internal/middleware"
)

// Tenant selection cookie names. Advisory cache only; the membership store
// stays the source of truth.
const (
	TeamIDCookie   = "tenant_id"
	TeamSlugCookie = "tenant_slug"
)

// IdentityClient is the slice of the provider client the flows need.
type IdentityClient interface {
	ExchangeCode(ctx context.Context, code string) (*domain.Session, error)
	VerifyOTP(ctx context.Context, typ idp.OTPType, tokenHash string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string, scope idp.SignOutScope) error
	HostedVerifyURL(tokenHash string, typ idp.OTPType, redirectTo string) string
}

// TeamResolver resolves a principal's default team.
type TeamResolver interface {
	ResolveDefault(ctx context.Context, userID string) (*domain.ResolvedTeam, error)
	DefaultTeamIdentity(ctx context.Context, userID string) (*domain.ResolvedTeam, error)
}

// SandboxCreator starts a sandbox on behalf of a team member.
type SandboxCreator interface {
	Create(ctx context.Context, accessToken, teamID string) (string, error)
}

// Handler carries the flow orchestrators' shared dependencies.
type Handler struct {
	appOrigin *url.URL
	idp       IdentityClient
	teams     TeamResolver
	sandboxes SandboxCreator
	logger    *slog.Logger
}

func NewHandler(appOrigin *url.URL, identity IdentityClient, teams TeamResolver, sandboxes SandboxCreator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		appOrigin: appOrigin,
		idp:       identity,
		teams:     teams,
		sandboxes: sandboxes,
		logger:    logger.With("component", "auth-flows"),
	}
}

// EncodedRedirect appends a status-tagged message to target's query string:
// ?{kind}={message}. The sign-in, sign-up, and forgot-password pages read
// these parameters to render a banner.
func EncodedRedirect(kind, target, message string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(kind, message)
	u.RawQuery = q.Encode()
	return u.String()
}

func (h *Handler) encodedRedirect(w http.ResponseWriter, r *http.Request, kind, target, message string) {
	http.Redirect(w, r, EncodedRedirect(kind, target, message), http.StatusSeeOther)
}

// SetTeamCookies records the selected team's ID and slug. Idempotent: writing
// the same pair twice leaves cookie state identical to a single write.
func SetTeamCookies(w http.ResponseWriter, teamID, teamSlug string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TeamIDCookie,
		Value:    teamID,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     TeamSlugCookie,
		Value:    teamSlug,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSessionCookies stores the provider tokens after a successful exchange or
// verification. The access token is re-verified upstream on every request, so
// the cookie is a transport, not a trust anchor.
func SetSessionCookies(w http.ResponseWriter, s *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ExpiresIn),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    s.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies drops the provider token cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

// truncateHash shortens a token hash for logging. Never log the full value.
func truncateHash(tokenHash string) string {
	if len(tokenHash) <= 10 {
		return tokenHash
	}
	return tokenHash[:10] + "..."
}
