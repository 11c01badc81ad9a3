package api

import (
	"net/http"
	"net/url"

	"tenantgate/internal/domain"
	"tenantgate/internal/idp"
	"tenantgate/internal/urls"
)

// tabPath maps a dashboard tab name to its tenant-scoped path. The account
// and personal tabs route to the global account settings regardless of team;
// anything unknown falls back to the sandboxes view.
func tabPath(tab, teamIDOrSlug string) string {
	switch tab {
	case "sandboxes":
		return urls.Sandboxes(teamIDOrSlug)
	case "templates":
		return urls.Templates(teamIDOrSlug)
	case "usage":
		return urls.Usage(teamIDOrSlug)
	case "billing":
		return urls.Billing(teamIDOrSlug)
	case "budget":
		return urls.Budget(teamIDOrSlug)
	case "keys":
		return urls.Keys(teamIDOrSlug)
	case "settings", "team":
		return urls.General(teamIDOrSlug)
	case "members":
		return urls.Members(teamIDOrSlug)
	case "account", "personal":
		return urls.AccountSettings
	default:
		return urls.Sandboxes(teamIDOrSlug)
	}
}

// Dashboard handles the dashboard root: resolve the principal's default team,
// persist the tenant selection, and redirect into the requested tab. Some
// client navigations arrive as POST; they get identical handling.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, urls.SignIn, http.StatusSeeOther)
		return
	}

	team, failed := h.resolveTeamOrBail(w, r, principal.ID)
	if failed {
		return
	}

	SetTeamCookies(w, team.ID, slugValue(team))
	http.Redirect(w, r, tabPath(r.URL.Query().Get("tab"), team.SlugOrID()), http.StatusSeeOther)
}

// AccountSettings handles /dashboard/account: same resolution as the
// dashboard root, then a redirect to the tenant-scoped account path with all
// query parameters (notably reauth=1) carried over.
func (h *Handler) AccountSettings(w http.ResponseWriter, r *http.Request) {
	principal, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, urls.SignIn, http.StatusSeeOther)
		return
	}

	team, failed := h.resolveTeamOrBail(w, r, principal.ID)
	if failed {
		return
	}

	SetTeamCookies(w, team.ID, slugValue(team))

	target, _ := url.Parse(urls.ResolvedAccountSettings(team.SlugOrID()))
	q := target.Query()
	for key, values := range r.URL.Query() {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// resolveTeamOrBail resolves the principal's default team and, on any failure
// to produce one, terminates the flow with the appropriate redirect. The
// no-team case is unrecoverable for this session: sign out, then send the
// user to sign-in with a support message.
func (h *Handler) resolveTeamOrBail(w http.ResponseWriter, r *http.Request, userID string) (*domain.ResolvedTeam, bool) {
	team, err := h.teams.ResolveDefault(r.Context(), userID)
	if err != nil {
		h.logger.Error("team resolution failed",
			"key", "dashboard:resolve_failed", "user_id", userID, "error", err)
		h.encodedRedirect(w, r, "error", urls.SignIn, "Something went wrong. Please try again.")
		return nil, true
	}
	if team == nil {
		h.logger.Error("no default team for user",
			"key", "dashboard:no_default_team", "user_id", userID)

		if session, ok := domain.SessionFromContext(r.Context()); ok {
			if err := h.idp.SignOut(r.Context(), session.AccessToken, idp.ScopeGlobal); err != nil {
				h.logger.Warn("sign-out after resolution failure failed",
					"key", "dashboard:signout_failed", "error", err)
			}
		}
		ClearSessionCookies(w)
		h.encodedRedirect(w, r, "error", urls.SignIn, "No personal team found. Please contact support.")
		return nil, true
	}
	return team, false
}

func slugValue(team *domain.ResolvedTeam) string {
	if team.Slug != nil {
		return *team.Slug
	}
	return ""
}
