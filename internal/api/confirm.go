package api

import (
	"net/http"
	"net/url"

	"tenantgate/internal/idp"
	"tenantgate/internal/redirect"
	"tenantgate/internal/urls"
)

// confirmParams is the validated shape of a confirm link's query string.
type confirmParams struct {
	tokenHash string
	typ       idp.OTPType
	next      *url.URL
}

// parseConfirmParams validates the raw query without touching the provider.
// next must be an absolute URL; token_hash must be non-empty; type must be a
// known OTP kind.
func parseConfirmParams(q url.Values) (confirmParams, bool) {
	tokenHash := q.Get("token_hash")
	if tokenHash == "" {
		return confirmParams{}, false
	}
	typ, ok := idp.ParseOTPType(q.Get("type"))
	if !ok {
		return confirmParams{}, false
	}
	next, err := url.Parse(q.Get("next"))
	if err != nil || next.Scheme == "" || next.Host == "" {
		return confirmParams{}, false
	}
	return confirmParams{tokenHash: tokenHash, typ: typ, next: next}, true
}

// Confirm handles email confirmation links (signup, recovery, invite, magic
// link, email change). Cross-origin next targets are delegated wholesale to
// the provider's hosted verify endpoint; everything else is verified locally
// and redirected, with recovery links pinned to the password-reset path.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	params, ok := parseConfirmParams(r.URL.Query())
	if !ok {
		h.logger.Error("malformed confirm link",
			"key", "auth_confirm:invalid_params",
			"type", r.URL.Query().Get("type"),
			"next", r.URL.Query().Get("next"))
		h.encodedRedirect(w, r, "error", urls.SignIn, "Invalid Request")
		return
	}

	nextOrigin := params.next.Scheme + "://" + params.next.Host
	differentOrigin := redirect.NormalizeOrigin(nextOrigin) !=
		redirect.NormalizeOrigin(h.appOrigin.String())

	h.logger.Info("confirm link received",
		"key", "auth_confirm:init",
		"token_hash", truncateHash(params.tokenHash),
		"type", string(params.typ),
		"next", params.next.String(),
		"different_origin", differentOrigin)

	// A next target on a foreign origin means this deployment is not the one
	// that issued the link. Hand the whole verification to the provider's
	// hosted flow; the token is passed through unverified here.
	if differentOrigin {
		hosted := h.idp.HostedVerifyURL(params.tokenHash, params.typ, params.next.String())
		http.Redirect(w, r, hosted, http.StatusSeeOther)
		return
	}

	// Recovery links always land on the password-reset page, regardless of
	// the link's own next value.
	target := params.next
	if params.typ == idp.OTPRecovery {
		reset := *h.appOrigin
		reset.Path = urls.ResetPassword
		target = &reset
	}

	session, err := h.idp.VerifyOTP(r.Context(), params.typ, params.tokenHash)
	if err != nil {
		h.logger.Error("token verification failed",
			"key", "auth_confirm:verify_failed",
			"token_hash", truncateHash(params.tokenHash),
			"type", string(params.typ),
			"error", err)

		message := "Invalid Token"
		if idp.IsCode(err, idp.CodeOTPExpired) {
			message = "Email link has expired. Please request a new one."
		}
		h.encodedRedirect(w, r, "error", urls.SignIn, message)
		return
	}

	SetSessionCookies(w, session)

	// A confirm link landing on account settings is a re-authentication; the
	// settings page needs the marker to unlock sensitive actions.
	if target.Path == urls.AccountSettings {
		q := target.Query()
		q.Set("reauth", "1")
		target.RawQuery = q.Encode()
	}

	h.logger.Info("token verified",
		"key", "auth_confirm:success",
		"token_hash", truncateHash(params.tokenHash),
		"user_id", session.User.ID,
		"target", target.String())
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}
