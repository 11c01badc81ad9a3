package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantgate/internal/domain"
	"tenantgate/internal/idp"
	"tenantgate/internal/urls"
)

type stubIdentity struct {
	exchangeSession *domain.Session
	exchangeErr     error
	exchangeCalls   int

	verifySession *domain.Session
	verifyErr     error
	verifyCalls   int

	signOutCalls int
	signOutErr   error
}

func (s *stubIdentity) ExchangeCode(_ context.Context, _ string) (*domain.Session, error) {
	s.exchangeCalls++
	return s.exchangeSession, s.exchangeErr
}

func (s *stubIdentity) VerifyOTP(_ context.Context, _ idp.OTPType, _ string) (*domain.Session, error) {
	s.verifyCalls++
	return s.verifySession, s.verifyErr
}

func (s *stubIdentity) SignOut(_ context.Context, _ string, _ idp.SignOutScope) error {
	s.signOutCalls++
	return s.signOutErr
}

func (s *stubIdentity) HostedVerifyURL(tokenHash string, typ idp.OTPType, redirectTo string) string {
	q := url.Values{}
	q.Set("token", tokenHash)
	q.Set("type", string(typ))
	q.Set("redirect_to", redirectTo)
	return "https://auth.example.com/auth/v1/verify?" + q.Encode()
}

type stubTeams struct {
	team *domain.ResolvedTeam
	err  error

	resolveCalls  int
	identityCalls int
}

func (s *stubTeams) ResolveDefault(_ context.Context, _ string) (*domain.ResolvedTeam, error) {
	s.resolveCalls++
	return s.team, s.err
}

func (s *stubTeams) DefaultTeamIdentity(_ context.Context, _ string) (*domain.ResolvedTeam, error) {
	s.identityCalls++
	return s.team, s.err
}

type stubSandboxes struct {
	sandboxID string
	err       error
	gotToken  string
	gotTeamID string
}

func (s *stubSandboxes) Create(_ context.Context, accessToken, teamID string) (string, error) {
	s.gotToken = accessToken
	s.gotTeamID = teamID
	return s.sandboxID, s.err
}

func testOrigin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://app.example")
	require.NoError(t, err)
	return u
}

func newTestHandler(t *testing.T, identity *stubIdentity, teams *stubTeams, sandboxes *stubSandboxes) *Handler {
	t.Helper()
	if identity == nil {
		identity = &stubIdentity{}
	}
	if teams == nil {
		teams = &stubTeams{}
	}
	if sandboxes == nil {
		sandboxes = &stubSandboxes{}
	}
	return NewHandler(testOrigin(t), identity, teams, sandboxes, nil)
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := domain.WithPrincipal(req.Context(), domain.Principal{ID: "u1", Email: "alice@example.com"})
	ctx = domain.WithSession(ctx, domain.Session{AccessToken: "at-1", User: domain.Principal{ID: "u1"}})
	return req.WithContext(ctx)
}

func location(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func resolvedTeam(id, name string, slug *string, isDefault bool) *domain.ResolvedTeam {
	return &domain.ResolvedTeam{
		Team:      domain.Team{ID: id, Name: name, Slug: slug},
		IsDefault: isDefault,
	}
}

func strptr(s string) *string { return &s }

// --- callback -------------------------------------------------------------

func TestCallback_NoCodeDefaultsToDashboard(t *testing.T) {
	identity := &stubIdentity{}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, urls.AuthCallback, nil))

	assert.Equal(t, urls.Dashboard, location(t, rec).Path)
	assert.Zero(t, identity.exchangeCalls)
}

func TestCallback_ExchangeFailureRedirectsToSignIn(t *testing.T) {
	identity := &stubIdentity{exchangeErr: &idp.Error{Code: "invalid_grant", Status: 400, Message: "code is invalid"}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, urls.AuthCallback+"?code=bad", nil))

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.Equal(t, "code is invalid", loc.Query().Get("error"))
}

func TestCallback_ExchangeSetsSessionCookies(t *testing.T) {
	identity := &stubIdentity{exchangeSession: &domain.Session{
		AccessToken: "at-9", RefreshToken: "rt-9", ExpiresIn: 3600,
		User: domain.Principal{ID: "u1"},
	}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, urls.AuthCallback+"?code=good", nil))

	location(t, rec)
	cookies := rec.Result().Cookies()
	values := map[string]string{}
	for _, c := range cookies {
		values[c.Name] = c.Value
	}
	assert.Equal(t, "at-9", values["sb_access_token"])
	assert.Equal(t, "rt-9", values["sb_refresh_token"])
}

func TestCallback_RedirectToTakesPriorityOverReturnTo(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	target := urls.AuthCallback + "?redirect_to=" + url.QueryEscape("/dashboard/acme/usage") +
		"&returnTo=" + url.QueryEscape("/somewhere-else")
	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, "/dashboard/acme/usage", location(t, rec).Path)
}

func TestCallback_ReturnToAccountSettingsGetsReauthMarker(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	target := urls.AuthCallback + "?returnTo=" + url.QueryEscape(urls.AccountSettings)
	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, target, nil))

	loc := location(t, rec)
	assert.Equal(t, urls.AccountSettings, loc.Path)
	assert.Equal(t, "1", loc.Query().Get("reauth"))
}

func TestCallback_CrossOriginReturnToFallsThrough(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	target := urls.AuthCallback + "?returnTo=" + url.QueryEscape("https://evil.example/dashboard")
	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, target, nil))

	assert.Equal(t, urls.Dashboard, location(t, rec).Path)
}

// --- confirm --------------------------------------------------------------

func confirmTarget(tokenHash, typ, next string) string {
	q := url.Values{}
	if tokenHash != "" {
		q.Set("token_hash", tokenHash)
	}
	if typ != "" {
		q.Set("type", typ)
	}
	if next != "" {
		q.Set("next", next)
	}
	return urls.AuthConfirm + "?" + q.Encode()
}

func TestConfirm_MalformedInputNeverReachesProvider(t *testing.T) {
	cases := map[string]string{
		"missing token_hash": confirmTarget("", "magiclink", "https://app.example/dashboard"),
		"unknown type":       confirmTarget("abc", "sms", "https://app.example/dashboard"),
		"relative next":      confirmTarget("abc", "magiclink", "/dashboard"),
		"missing next":       confirmTarget("abc", "magiclink", ""),
	}

	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			identity := &stubIdentity{}
			h := newTestHandler(t, identity, nil, nil)

			rec := httptest.NewRecorder()
			h.Confirm(rec, httptest.NewRequest(http.MethodGet, target, nil))

			loc := location(t, rec)
			assert.Equal(t, urls.SignIn, loc.Path)
			assert.Equal(t, "Invalid Request", loc.Query().Get("error"))
			assert.Zero(t, identity.verifyCalls)
		})
	}
}

func TestConfirm_ForeignOriginDelegatesToProvider(t *testing.T) {
	identity := &stubIdentity{}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "magiclink", "https://other.example/next"), nil))

	loc := location(t, rec)
	assert.Equal(t, "auth.example.com", loc.Host)
	assert.Equal(t, "/auth/v1/verify", loc.Path)
	assert.Equal(t, "abc", loc.Query().Get("token"))
	assert.Equal(t, "magiclink", loc.Query().Get("type"))
	assert.Equal(t, "https://other.example/next", loc.Query().Get("redirect_to"))
	// Verification is delegated entirely; it must not happen locally.
	assert.Zero(t, identity.verifyCalls)
}

func TestConfirm_WWWPrefixCountsAsSameOrigin(t *testing.T) {
	identity := &stubIdentity{verifySession: &domain.Session{User: domain.Principal{ID: "u1"}}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "magiclink", "https://www.app.example/dashboard"), nil))

	location(t, rec)
	assert.Equal(t, 1, identity.verifyCalls)
}

func TestConfirm_RecoveryForcesResetPath(t *testing.T) {
	identity := &stubIdentity{verifySession: &domain.Session{User: domain.Principal{ID: "u1"}}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "recovery", "https://app.example/anywhere-else"), nil))

	loc := location(t, rec)
	assert.Equal(t, urls.ResetPassword, loc.Path)
	// The reset path is the account settings page, so the reauth marker rides along.
	assert.Equal(t, "1", loc.Query().Get("reauth"))
}

func TestConfirm_ExpiredLinkMessage(t *testing.T) {
	identity := &stubIdentity{verifyErr: &idp.Error{Code: idp.CodeOTPExpired, Status: 403, Message: "Token has expired"}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "magiclink", "https://app.example/dashboard"), nil))

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.Equal(t, "Email link has expired. Please request a new one.", loc.Query().Get("error"))
}

func TestConfirm_OtherVerifyFailuresAreGeneric(t *testing.T) {
	identity := &stubIdentity{verifyErr: &idp.Error{Code: "bad_jwt", Status: 401, Message: "token is malformed"}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "magiclink", "https://app.example/dashboard"), nil))

	loc := location(t, rec)
	assert.Equal(t, "Invalid Token", loc.Query().Get("error"))
}

func TestConfirm_SuccessRedirectsToNext(t *testing.T) {
	identity := &stubIdentity{verifySession: &domain.Session{AccessToken: "at-1", User: domain.Principal{ID: "u1"}}}
	h := newTestHandler(t, identity, nil, nil)

	rec := httptest.NewRecorder()
	h.Confirm(rec, httptest.NewRequest(http.MethodGet,
		confirmTarget("abc", "signup", "https://app.example/dashboard"), nil))

	loc := location(t, rec)
	assert.Equal(t, urls.Dashboard, loc.Path)
	assert.Empty(t, loc.Query().Get("reauth"))
}

// --- dashboard ------------------------------------------------------------

func TestDashboard_UnauthenticatedRedirectsToSignIn(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, urls.Dashboard, nil))

	assert.Equal(t, urls.SignIn, location(t, rec).Path)
}

func TestDashboard_NoTeamSignsOutWithSupportMessage(t *testing.T) {
	identity := &stubIdentity{}
	teams := &stubTeams{team: nil}
	h := newTestHandler(t, identity, teams, nil)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, authedRequest(http.MethodGet, urls.Dashboard))

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.Equal(t, "No personal team found. Please contact support.", loc.Query().Get("error"))
	assert.Equal(t, 1, identity.signOutCalls)

	// Session cookies are dropped; a tenant redirect never happens.
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sb_access_token" || c.Name == "sb_refresh_token" {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestDashboard_ResolutionErrorRedirectsWithoutSignOut(t *testing.T) {
	identity := &stubIdentity{}
	teams := &stubTeams{err: errors.New("db down")}
	h := newTestHandler(t, identity, teams, nil)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, authedRequest(http.MethodGet, urls.Dashboard))

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.NotEmpty(t, loc.Query().Get("error"))
	assert.Zero(t, identity.signOutCalls)
}

func TestDashboard_TabRouting(t *testing.T) {
	tests := []struct {
		tab  string
		want string
	}{
		{tab: "billing", want: "/dashboard/acme/billing"},
		{tab: "templates", want: "/dashboard/acme/templates"},
		{tab: "usage", want: "/dashboard/acme/usage"},
		{tab: "budget", want: "/dashboard/acme/budget"},
		{tab: "keys", want: "/dashboard/acme/keys"},
		{tab: "settings", want: "/dashboard/acme/general"},
		{tab: "team", want: "/dashboard/acme/general"},
		{tab: "members", want: "/dashboard/acme/members"},
		{tab: "account", want: urls.AccountSettings},
		{tab: "personal", want: urls.AccountSettings},
		{tab: "sandboxes", want: "/dashboard/acme/sandboxes"},
		{tab: "unknown", want: "/dashboard/acme/sandboxes"},
		{tab: "", want: "/dashboard/acme/sandboxes"},
	}

	for _, tt := range tests {
		t.Run("tab="+tt.tab, func(t *testing.T) {
			teams := &stubTeams{team: resolvedTeam("t1", "acme", strptr("acme"), true)}
			h := newTestHandler(t, nil, teams, nil)

			target := urls.Dashboard
			if tt.tab != "" {
				target += "?tab=" + tt.tab
			}
			rec := httptest.NewRecorder()
			h.Dashboard(rec, authedRequest(http.MethodGet, target))

			assert.Equal(t, tt.want, location(t, rec).Path)
		})
	}
}

func TestDashboard_SlugFallsBackToID(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", nil, true)}
	h := newTestHandler(t, nil, teams, nil)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, authedRequest(http.MethodGet, urls.Dashboard+"?tab=usage"))

	assert.Equal(t, "/dashboard/t1/usage", location(t, rec).Path)
}

func TestDashboard_PostBehavesLikeGet(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", strptr("acme"), true)}
	h := newTestHandler(t, nil, teams, nil)

	recGet := httptest.NewRecorder()
	h.Dashboard(recGet, authedRequest(http.MethodGet, urls.Dashboard+"?tab=billing"))
	recPost := httptest.NewRecorder()
	h.Dashboard(recPost, authedRequest(http.MethodPost, urls.Dashboard+"?tab=billing"))

	assert.Equal(t, recGet.Header().Get("Location"), recPost.Header().Get("Location"))
}

func TestDashboard_TeamCookiesAreIdempotent(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", strptr("acme"), true)}
	h := newTestHandler(t, nil, teams, nil)

	teamCookies := func(rec *httptest.ResponseRecorder) map[string]string {
		out := map[string]string{}
		for _, c := range rec.Result().Cookies() {
			if c.Name == TeamIDCookie || c.Name == TeamSlugCookie {
				out[c.Name] = c.Value
			}
		}
		return out
	}

	recA := httptest.NewRecorder()
	h.Dashboard(recA, authedRequest(http.MethodGet, urls.Dashboard))
	recB := httptest.NewRecorder()
	h.Dashboard(recB, authedRequest(http.MethodGet, urls.Dashboard))

	first := teamCookies(recA)
	assert.Equal(t, "t1", first[TeamIDCookie])
	assert.Equal(t, "acme", first[TeamSlugCookie])
	assert.Equal(t, first, teamCookies(recB))
}

// --- account settings -----------------------------------------------------

func TestAccountSettings_PreservesQueryAndFallsBackToID(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", nil, true)}
	h := newTestHandler(t, nil, teams, nil)

	rec := httptest.NewRecorder()
	h.AccountSettings(rec, authedRequest(http.MethodGet, urls.AccountSettings+"?reauth=1"))

	loc := location(t, rec)
	assert.Equal(t, "/dashboard/t1/account", loc.Path)
	assert.Equal(t, "1", loc.Query().Get("reauth"))
}

func TestAccountSettings_UnauthenticatedRedirectsToSignIn(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.AccountSettings(rec, httptest.NewRequest(http.MethodGet, urls.AccountSettings, nil))

	assert.Equal(t, urls.SignIn, location(t, rec).Path)
}

// --- sandbox shortcut -----------------------------------------------------

func TestNewSandbox_UnauthenticatedPreservesReturnTo(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.NewSandbox(rec, httptest.NewRequest(http.MethodGet, urls.NewSandbox, nil))

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.Equal(t, urls.NewSandbox, loc.Query().Get("returnTo"))
}

func TestNewSandbox_PrincipalWithoutSessionRedirectsToSignIn(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, urls.NewSandbox, nil)
	req = req.WithContext(domain.WithPrincipal(req.Context(), domain.Principal{ID: "u1"}))
	rec := httptest.NewRecorder()
	h.NewSandbox(rec, req)

	loc := location(t, rec)
	assert.Equal(t, urls.SignIn, loc.Path)
	assert.Equal(t, urls.NewSandbox, loc.Query().Get("returnTo"))
}

func TestNewSandbox_CreatesAndRedirectsToInspect(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", strptr("acme"), true)}
	sandboxes := &stubSandboxes{sandboxID: "sbx-42"}
	h := newTestHandler(t, nil, teams, sandboxes)

	rec := httptest.NewRecorder()
	h.NewSandbox(rec, authedRequest(http.MethodGet, urls.NewSandbox))

	assert.Equal(t, "/dashboard/acme/sandboxes/sbx-42/inspect", location(t, rec).Path)
	assert.Equal(t, "at-1", sandboxes.gotToken)
	assert.Equal(t, "t1", sandboxes.gotTeamID)
	// The shortcut only needs tenant identity, not display enrichment.
	assert.Equal(t, 1, teams.identityCalls)
	assert.Zero(t, teams.resolveCalls)
}

func TestNewSandbox_CreationFailureDegradesToRoot(t *testing.T) {
	teams := &stubTeams{team: resolvedTeam("t1", "acme", strptr("acme"), true)}
	sandboxes := &stubSandboxes{err: errors.New("upstream down")}
	h := newTestHandler(t, nil, teams, sandboxes)

	rec := httptest.NewRecorder()
	h.NewSandbox(rec, authedRequest(http.MethodGet, urls.NewSandbox))

	assert.Equal(t, "/", location(t, rec).Path)
}

func TestNewSandbox_NoTeamDegradesToRoot(t *testing.T) {
	h := newTestHandler(t, nil, &stubTeams{}, nil)

	rec := httptest.NewRecorder()
	h.NewSandbox(rec, authedRequest(http.MethodGet, urls.NewSandbox))

	assert.Equal(t, "/", location(t, rec).Path)
}

// --- helpers --------------------------------------------------------------

func TestEncodedRedirect(t *testing.T) {
	got := EncodedRedirect("error", urls.SignIn, "Invalid Token")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, urls.SignIn, u.Path)
	assert.Equal(t, "Invalid Token", u.Query().Get("error"))

	got = EncodedRedirect("success", "/forgot-password?x=1", "Check your email")
	u, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "Check your email", u.Query().Get("success"))
	assert.Equal(t, "1", u.Query().Get("x"))
}
