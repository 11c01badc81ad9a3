package redirect

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appOrigin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://app.example.com")
	require.NoError(t, err)
	return u
}

func TestValidate_RelativePath(t *testing.T) {
	u, ok := Validate("/dashboard/acme/usage", appOrigin(t))
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com/dashboard/acme/usage", u.String())
}

func TestValidate_SameOriginAbsolute(t *testing.T) {
	u, ok := Validate("https://app.example.com/dashboard", appOrigin(t))
	require.True(t, ok)
	assert.Equal(t, "/dashboard", u.Path)
}

func TestValidate_CrossOrigin(t *testing.T) {
	for _, candidate := range []string{
		"https://evil.example.com/dashboard",
		"http://app.example.com/dashboard", // scheme downgrade is a different origin
		"https://app.example.com:8443/x",   // explicit port is a different origin
	} {
		_, ok := Validate(candidate, appOrigin(t))
		assert.False(t, ok, "expected rejection of %q", candidate)
	}
}

func TestValidate_ProtocolRelative(t *testing.T) {
	_, ok := Validate("//evil.example.com/dashboard", appOrigin(t))
	assert.False(t, ok)
}

func TestValidate_UserinfoTrick(t *testing.T) {
	// The host is everything after the @: this must resolve to evil.example.com.
	_, ok := Validate("https://app.example.com@evil.example.com/", appOrigin(t))
	assert.False(t, ok)
}

func TestValidate_Unparsable(t *testing.T) {
	_, ok := Validate("https://%zz", appOrigin(t))
	assert.False(t, ok)
}

func TestValidate_Empty(t *testing.T) {
	_, ok := Validate("", appOrigin(t))
	assert.False(t, ok)
}

func TestValidate_AccountSettingsGetsReauthMarker(t *testing.T) {
	u, ok := Validate("/dashboard/account", appOrigin(t))
	require.True(t, ok)
	assert.Equal(t, "1", u.Query().Get("reauth"))
}

func TestValidate_OtherPathsHaveNoMarker(t *testing.T) {
	u, ok := Validate("/dashboard", appOrigin(t))
	require.True(t, ok)
	assert.Empty(t, u.Query().Get("reauth"))
}

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, "https://app.example.com", NormalizeOrigin("https://www.app.example.com/"))
	assert.Equal(t, "https://app.example.com", NormalizeOrigin("https://app.example.com"))
	assert.Equal(t, "app.example.com", NormalizeOrigin("www.app.example.com"))
}
