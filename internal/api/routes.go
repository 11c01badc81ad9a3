package api

import (
	"github.com/go-chi/chi/v5"

	"tenantgate/internal/urls"
)

// Routes mounts the flow orchestrators. The dashboard root accepts POST as
// well: some client navigations submit instead of fetching, and both must
// redirect identically.
func (h *Handler) Routes(r chi.Router) {
	r.Get(urls.AuthCallback, h.Callback)
	r.Get(urls.AuthConfirm, h.Confirm)

	r.Get(urls.Dashboard, h.Dashboard)
	r.Post(urls.Dashboard, h.Dashboard)
	r.Get(urls.AccountSettings, h.AccountSettings)

	r.Get(urls.NewSandbox, h.NewSandbox)
}
