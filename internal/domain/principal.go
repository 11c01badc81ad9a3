package domain

// Principal represents an authenticated user as reported by the identity provider.
// It is read-only from the gateway's perspective; the provider owns its lifecycle.
type Principal struct {
	ID    string
	Email string
}

// Session is an access credential tied to a Principal. It is re-derived from
// the identity provider on each request and never persisted by the gateway.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         Principal
}
