package ui

import (
	"net/http"
	"net/url"
	"strings"

	"tenantgate/internal/api"
	"tenantgate/internal/domain"
	"tenantgate/internal/idp"
	"tenantgate/internal/redirect"
	"tenantgate/internal/urls"
)

const providerOutageMessage = "Our authentication provider is experiencing issues. Please try again later."

func bannerFromQuery(q url.Values) banner {
	return banner{
		Error:   strings.TrimSpace(q.Get("error")),
		Success: strings.TrimSpace(q.Get("success")),
	}
}

// withReturnTo carries the returnTo parameter across an error redirect so the
// user does not lose their destination when retrying.
func withReturnTo(target, returnTo string) string {
	if returnTo == "" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("returnTo", returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}

// callbackURL builds the absolute callback URL email links should land on.
func (h *Handler) callbackURL(returnTo string) string {
	cb := *h.AppOrigin
	cb.Path = urls.AuthCallback
	if returnTo != "" {
		q := url.Values{}
		q.Set("returnTo", returnTo)
		cb.RawQuery = q.Encode()
	}
	return cb.String()
}

func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := domain.PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, urls.Dashboard, http.StatusSeeOther)
		return
	}
	q := r.URL.Query()
	renderHTML(w, http.StatusOK, signInPage(bannerFromQuery(q), q.Get("returnTo")))
}

func (h *Handler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := domain.PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, urls.Dashboard, http.StatusSeeOther)
		return
	}
	q := r.URL.Query()
	renderHTML(w, http.StatusOK, signUpPage(bannerFromQuery(q), q.Get("returnTo")))
}

func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, forgotPasswordPage(bannerFromQuery(r.URL.Query())))
}

// SignInSubmit authenticates with email/password. The provider is probed
// first so an outage shows up as one clear banner instead of a confusing
// provider error.
func (h *Handler) SignInSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectError(w, r, urls.SignIn, "Invalid form submission.", "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	returnTo := strings.TrimSpace(r.Form.Get("returnTo"))

	if email == "" || password == "" {
		h.redirectError(w, r, urls.SignIn, "Email and password are required.", returnTo)
		return
	}

	if !h.Health.Healthy(r.Context()) {
		h.redirectError(w, r, urls.SignIn, providerOutageMessage, returnTo)
		return
	}

	session, err := h.Auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		h.Logger.Warn("password sign-in failed",
			"key", "sign_in:provider_error", "error", err)

		switch {
		case idp.IsCode(err, idp.CodeInvalidCredentials):
			h.redirectError(w, r, urls.SignIn, "Invalid email or password.", returnTo)
		case idp.IsCode(err, idp.CodeEmailNotConfirmed):
			h.redirectError(w, r, urls.SignIn, "Please confirm your email address before signing in.", returnTo)
		default:
			h.redirectError(w, r, urls.SignIn, "Sign-in failed. Please try again.", returnTo)
		}
		return
	}

	api.SetSessionCookies(w, session)

	// A sign-in on the way to account settings is a re-authentication.
	if returnTo == urls.AccountSettings {
		http.Redirect(w, r, urls.AccountSettings+"?reauth=1", http.StatusSeeOther)
		return
	}
	if u, ok := redirect.Validate(returnTo, h.AppOrigin); ok {
		http.Redirect(w, r, u.RequestURI(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, urls.Dashboard, http.StatusSeeOther)
}

// SignUpSubmit registers a new account; the confirmation email lands on the
// callback flow with the original returnTo attached.
func (h *Handler) SignUpSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectError(w, r, urls.SignUp, "Invalid form submission.", "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	returnTo := strings.TrimSpace(r.Form.Get("returnTo"))

	if email == "" || password == "" {
		h.redirectError(w, r, urls.SignUp, "Email and password are required.", returnTo)
		return
	}
	if strings.EqualFold(password, email) {
		h.redirectError(w, r, urls.SignUp, "Password is too weak.", returnTo)
		return
	}

	if !h.Health.Healthy(r.Context()) {
		h.redirectError(w, r, urls.SignUp, providerOutageMessage, returnTo)
		return
	}

	if err := h.Auth.SignUp(r.Context(), email, password, h.callbackURL(returnTo)); err != nil {
		h.Logger.Warn("sign-up failed",
			"key", "sign_up:provider_error", "error", err)

		switch {
		case idp.IsCode(err, idp.CodeEmailExists):
			h.redirectError(w, r, urls.SignUp, "Email already in use.", returnTo)
		case idp.IsCode(err, idp.CodeWeakPassword):
			h.redirectError(w, r, urls.SignUp, "Password is too weak.", returnTo)
		default:
			h.redirectError(w, r, urls.SignUp, "Sign-up failed. Please try again.", returnTo)
		}
		return
	}

	http.Redirect(w, r,
		api.EncodedRedirect("success", withReturnTo(urls.SignUp, returnTo),
			"Check your email to confirm your account."),
		http.StatusSeeOther)
}

// ForgotPasswordSubmit asks the provider to send a recovery link.
func (h *Handler) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectError(w, r, urls.ForgotPassword, "Invalid form submission.", "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	if email == "" {
		h.redirectError(w, r, urls.ForgotPassword, "Email is required.", "")
		return
	}

	if !h.Health.Healthy(r.Context()) {
		h.redirectError(w, r, urls.ForgotPassword, providerOutageMessage, "")
		return
	}

	if err := h.Auth.ResetPasswordForEmail(r.Context(), email); err != nil {
		h.Logger.Error("password reset request failed",
			"key", "forgot_password:provider_error", "error", err)

		if pe, ok := idp.AsError(err); ok && strings.Contains(pe.Message, "security purposes") {
			h.redirectError(w, r, urls.ForgotPassword,
				"Please wait before requesting another password reset.", "")
			return
		}
		h.redirectError(w, r, urls.ForgotPassword, "Password reset failed. Please try again.", "")
		return
	}

	http.Redirect(w, r,
		api.EncodedRedirect("success", urls.ForgotPassword,
			"Check your email for a link to reset your password."),
		http.StatusSeeOther)
}

// OAuthStart redirects to the provider's hosted OAuth flow for the chosen
// provider, landing back on the callback route with returnTo preserved.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectError(w, r, urls.SignIn, "Invalid form submission.", "")
		return
	}
	provider := r.Form.Get("provider")
	returnTo := strings.TrimSpace(r.Form.Get("returnTo"))

	if provider != "github" && provider != "google" {
		h.redirectError(w, r, urls.SignIn, "Unknown sign-in provider.", returnTo)
		return
	}

	if !h.Health.Healthy(r.Context()) {
		h.redirectError(w, r, urls.SignIn, providerOutageMessage, returnTo)
		return
	}

	h.Logger.Info("starting OAuth sign-in",
		"key", "sign_in_with_oauth:init", "provider", provider, "return_to", returnTo)
	http.Redirect(w, r,
		h.Auth.OAuthAuthorizeURL(provider, h.callbackURL(returnTo), "email"),
		http.StatusSeeOther)
}

// SignOut invalidates the current session and drops all gateway cookies.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if session, ok := domain.SessionFromContext(r.Context()); ok {
		if err := h.Auth.SignOut(r.Context(), session.AccessToken, idp.ScopeGlobal); err != nil {
			h.Logger.Warn("provider sign-out failed",
				"key", "sign_out:provider_error", "error", err)
		}
	}
	api.ClearSessionCookies(w)
	api.SetTeamCookies(w, "", "")

	target := urls.SignIn
	if returnTo := r.URL.Query().Get("returnTo"); returnTo != "" {
		target = withReturnTo(target, returnTo)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// UpdateUserSubmit changes email, password, and/or display name on the
// provider. A password change invalidates all other sessions.
func (h *Handler) UpdateUserSubmit(w http.ResponseWriter, r *http.Request) {
	_, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, withReturnTo(urls.SignIn, urls.AccountSettings), http.StatusSeeOther)
		return
	}
	session, ok := domain.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, withReturnTo(urls.SignIn, urls.AccountSettings), http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.accountError(w, r, "Invalid form submission.")
		return
	}

	var fields idp.UpdateUserFields
	if v := strings.TrimSpace(r.Form.Get("email")); v != "" {
		fields.Email = &v
	}
	if v := r.Form.Get("password"); v != "" {
		fields.Password = &v
	}
	if v := strings.TrimSpace(r.Form.Get("name")); v != "" {
		fields.Name = &v
	}
	if fields.Email == nil && fields.Password == nil && fields.Name == nil {
		h.accountError(w, r, "Provide at least one of email, password, or name.")
		return
	}

	if fields.Password != nil {
		sameAsCurrent := strings.EqualFold(*fields.Password, session.User.Email)
		sameAsNew := fields.Email != nil && strings.EqualFold(*fields.Password, *fields.Email)
		if sameAsCurrent || sameAsNew {
			h.accountError(w, r, "Password is too weak.")
			return
		}
	}

	if _, err := h.Auth.UpdateUser(r.Context(), session.AccessToken, fields, h.callbackURL("")); err != nil {
		h.Logger.Warn("user update failed",
			"key", "update_user:provider_error", "error", err)

		switch {
		case idp.IsCode(err, idp.CodeEmailInvalid):
			h.accountError(w, r, "Invalid email address.")
		case idp.IsCode(err, idp.CodeEmailExists):
			h.accountError(w, r, "Email already in use.")
		case idp.IsCode(err, idp.CodeSamePassword):
			h.accountError(w, r, "New password cannot be the same as the old password.")
		case idp.IsCode(err, idp.CodeWeakPassword):
			h.accountError(w, r, "Password is too weak.")
		case idp.IsCode(err, idp.CodeReauthNeeded):
			http.Redirect(w, r, withReturnTo(urls.SignIn, urls.AccountSettings), http.StatusSeeOther)
		default:
			h.accountError(w, r, "Update failed. Please try again.")
		}
		return
	}

	// Other sessions must not survive a password change.
	if fields.Password != nil {
		if err := h.Auth.SignOut(r.Context(), session.AccessToken, idp.ScopeOthers); err != nil {
			h.Logger.Warn("revoking other sessions failed",
				"key", "update_user:signout_others_failed", "error", err)
		}
	}

	http.Redirect(w, r,
		api.EncodedRedirect("success", urls.AccountSettings, "Account updated."),
		http.StatusSeeOther)
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, page, message, returnTo string) {
	http.Redirect(w, r,
		api.EncodedRedirect("error", withReturnTo(page, returnTo), message),
		http.StatusSeeOther)
}

func (h *Handler) accountError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r,
		api.EncodedRedirect("error", urls.AccountSettings, message),
		http.StatusSeeOther)
}
