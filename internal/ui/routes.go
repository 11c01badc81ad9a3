package ui

import (
	"github.com/go-chi/chi/v5"

	"tenantgate/internal/urls"
)

// Routes mounts the auth pages and their form actions.
func (h *Handler) Routes(r chi.Router) {
	r.Get(urls.SignIn, h.SignInPage)
	r.Post(urls.SignIn, h.SignInSubmit)

	r.Get(urls.SignUp, h.SignUpPage)
	r.Post(urls.SignUp, h.SignUpSubmit)

	r.Get(urls.ForgotPassword, h.ForgotPasswordPage)
	r.Post(urls.ForgotPassword, h.ForgotPasswordSubmit)

	r.Post("/auth/oauth", h.OAuthStart)

	r.Get(urls.SignOut, h.SignOut)
	r.Post(urls.SignOut, h.SignOut)

	r.Post("/dashboard/account/update", h.UpdateUserSubmit)
}
