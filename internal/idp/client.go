// Package idp wraps the external identity provider's REST API behind a
// uniform result type. It is the only package that talks to the provider
// directly; every failure surfaces the provider's machine-readable error
// code so flow orchestrators can branch on it.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tenantgate/internal/domain"
)

// OTPType enumerates the token kinds issued by out-of-band email links.
type OTPType string

const (
	OTPSignup      OTPType = "signup"
	OTPRecovery    OTPType = "recovery"
	OTPInvite      OTPType = "invite"
	OTPMagicLink   OTPType = "magiclink"
	OTPEmail       OTPType = "email"
	OTPEmailChange OTPType = "email_change"
)

// ParseOTPType validates a raw type string from a confirm link.
func ParseOTPType(raw string) (OTPType, bool) {
	switch t := OTPType(raw); t {
	case OTPSignup, OTPRecovery, OTPInvite, OTPMagicLink, OTPEmail, OTPEmailChange:
		return t, true
	}
	return "", false
}

// SignOutScope selects which sessions a sign-out invalidates.
type SignOutScope string

const (
	// ScopeGlobal invalidates the current session (and everything derived
	// from it). Used after tenant-resolution failure to force re-login.
	ScopeGlobal SignOutScope = "global"
	// ScopeOthers invalidates all sessions except the current one. Used
	// after a password change.
	ScopeOthers SignOutScope = "others"
)

// UpdateUserFields carries the mutable user attributes for UpdateUser.
// Nil fields are left untouched.
type UpdateUserFields struct {
	Email    *string
	Password *string
	Name     *string
}

// Client talks to the identity provider. One handle is constructed at startup
// and shared across requests; it keeps no per-request mutable state.
type Client struct {
	baseURL string
	anonKey string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a provider client for the given base URL and public key.
func NewClient(baseURL, anonKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With("component", "idp"),
	}
}

// ExchangeCode exchanges a one-time authorization code for a session.
// At-most-once: no internal retry on failure.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.Session, error) {
	var s session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=authorization_code", "",
		map[string]string{"auth_code": code}, &s)
	if err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// VerifyOTP verifies a token hash issued by an out-of-band email link.
func (c *Client) VerifyOTP(ctx context.Context, typ OTPType, tokenHash string) (*domain.Session, error) {
	var s session
	err := c.do(ctx, http.MethodPost, "/auth/v1/verify", "",
		map[string]string{"type": string(typ), "token_hash": tokenHash}, &s)
	if err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// SignInWithPassword authenticates with email/password credentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	var s session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	return s.toDomain(), nil
}

// SignUp registers a new user. The provider sends a confirmation email whose
// link lands on emailRedirectTo via the confirm flow.
func (c *Client) SignUp(ctx context.Context, email, password, emailRedirectTo string) error {
	path := "/auth/v1/signup"
	if emailRedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(emailRedirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "",
		map[string]string{"email": email, "password": password}, nil)
}

// ResetPasswordForEmail asks the provider to send a recovery link.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", "",
		map[string]string{"email": email}, nil)
}

// GetUser resolves the principal behind an access token. This is how the
// gateway re-derives the session on every request.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Principal, error) {
	var u user
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &domain.Principal{ID: u.ID, Email: u.Email}, nil
}

// UpdateUser updates email, password, and/or display name. Email changes are
// confirmed via a link that lands on emailRedirectTo.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, fields UpdateUserFields, emailRedirectTo string) (*domain.Principal, error) {
	body := map[string]any{}
	if fields.Email != nil {
		body["email"] = *fields.Email
	}
	if fields.Password != nil {
		body["password"] = *fields.Password
	}
	if fields.Name != nil {
		body["data"] = map[string]string{"name": *fields.Name}
	}
	path := "/auth/v1/user"
	if emailRedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(emailRedirectTo)
	}
	var u user
	if err := c.do(ctx, http.MethodPut, path, accessToken, body, &u); err != nil {
		return nil, err
	}
	return &domain.Principal{ID: u.ID, Email: u.Email}, nil
}

// SignOut invalidates sessions for the token's user according to scope.
func (c *Client) SignOut(ctx context.Context, accessToken string, scope SignOutScope) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout?scope="+string(scope), accessToken, nil, nil)
}

// OAuthAuthorizeURL builds the provider's hosted OAuth start URL. The
// provider redirects back to redirectTo (our callback route) when done.
func (c *Client) OAuthAuthorizeURL(provider, redirectTo, scopes string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if scopes != "" {
		q.Set("scopes", scopes)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// HostedVerifyURL builds the provider's own verification endpoint for a
// confirm link whose next target lives on a foreign origin. The token is
// passed through unverified by the gateway; verification is delegated
// entirely to the provider.
func (c *Client) HostedVerifyURL(tokenHash string, typ OTPType, redirectTo string) string {
	q := url.Values{}
	q.Set("token", tokenHash)
	q.Set("type", string(typ))
	q.Set("redirect_to", redirectTo)
	return c.baseURL + "/auth/v1/verify?" + q.Encode()
}

// session mirrors the provider's token response payload.
type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         user   `json:"user"`
}

func (s *session) toDomain() *domain.Session {
	return &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         domain.Principal{ID: s.User.ID, Email: s.User.Email},
	}
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// providerError mirrors the provider's error payload. Older deployments use
// "error_code"/"msg", newer ones "code"/"message"; accept both.
type providerError struct {
	Code      string `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

// do performs a single provider request. Non-2xx responses decode into *Error
// carrying the provider's code verbatim.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("provider request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		_ = json.NewDecoder(resp.Body).Decode(&pe)
		code := pe.Code
		if code == "" {
			code = pe.ErrorCode
		}
		message := pe.Msg
		if message == "" {
			message = pe.Message
		}
		if message == "" {
			message = resp.Status
		}
		return &Error{Code: code, Status: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode provider response: %w", err)
		}
	}
	return nil
}
