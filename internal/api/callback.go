package api

import (
	"net/http"

	"tenantgate/internal/idp"
	"tenantgate/internal/redirect"
	"tenantgate/internal/urls"
)

// Callback handles the OAuth/OTP callback. When a one-time code is present it
// is exchanged for a session; then the redirect target is picked by
// precedence: a validated redirect_to parameter wins, then a validated
// returnTo, then the dashboard root. Team resolution is deferred to the
// dashboard entry this usually redirects into.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	returnTo := q.Get("returnTo")
	redirectTo := q.Get("redirect_to")

	h.logger.Info("auth callback request",
		"key", "auth_callback:request",
		"code_present", code != "",
		"return_to", returnTo,
		"redirect_to", redirectTo)

	if code != "" {
		session, err := h.idp.ExchangeCode(r.Context(), code)
		if err != nil {
			h.logger.Error("code exchange failed",
				"key", "auth_callback:exchange_failed", "error", err)

			message := "Authentication failed. Please try again."
			if pe, ok := idp.AsError(err); ok && pe.Message != "" {
				message = pe.Message
			}
			h.encodedRedirect(w, r, "error", urls.SignIn, message)
			return
		}

		h.logger.Info("code exchanged for session",
			"key", "auth_callback:code_exchanged", "user_id", session.User.ID)
		SetSessionCookies(w, session)
	}

	if u, ok := redirect.Validate(redirectTo, h.appOrigin); ok {
		h.logger.Info("following redirect_to",
			"key", "auth_callback:redirecting_to", "target", u.RequestURI())
		http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
		return
	}

	if u, ok := redirect.Validate(returnTo, h.appOrigin); ok {
		h.logger.Info("returning to requested path",
			"key", "auth_callback:returning_to", "target", u.RequestURI())
		http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
		return
	}

	h.logger.Info("redirecting to dashboard",
		"key", "auth_callback:redirecting_to_dashboard")
	http.Redirect(w, r, urls.Dashboard, http.StatusSeeOther)
}
