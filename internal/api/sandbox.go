package api

import (
	"net/http"
	"net/url"

	"tenantgate/internal/domain"
	"tenantgate/internal/urls"
)

// NewSandbox handles the "create and inspect a sandbox" shortcut. It needs
// both a principal and a live session (the creation call forwards the raw
// access token); anything unexpected downstream degrades to a redirect to the
// application root instead of an error page.
func (h *Handler) NewSandbox(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		h.redirectToSignIn(w, r)
		return
	}
	session, ok := domain.SessionFromContext(r.Context())
	if !ok {
		h.redirectToSignIn(w, r)
		return
	}

	team, err := h.teams.DefaultTeamIdentity(r.Context(), principal.ID)
	if err != nil || team == nil {
		h.logger.Warn("sandbox shortcut could not resolve a team",
			"key", "sandbox_new:unexpected_error", "user_id", principal.ID, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sandboxID, err := h.sandboxes.Create(r.Context(), session.AccessToken, team.ID)
	if err != nil {
		h.logger.Warn("sandbox creation failed",
			"key", "sandbox_new:unexpected_error", "user_id", principal.ID, "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, urls.SandboxInspect(team.SlugOrID(), sandboxID), http.StatusSeeOther)
}

// redirectToSignIn sends an unauthenticated visitor to sign-in, preserving
// the current path so the callback flow can return them here.
func (h *Handler) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	q.Set("returnTo", r.URL.Path)
	http.Redirect(w, r, urls.SignIn+"?"+q.Encode(), http.StatusSeeOther)
}
