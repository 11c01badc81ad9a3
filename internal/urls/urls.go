// Package urls centralizes the gateway's route paths so flow orchestrators,
// pages, and tests agree on a single canonical set.
package urls

// Public (unauthenticated) paths.
const (
	SignIn         = "/sign-in"
	SignUp         = "/sign-up"
	ForgotPassword = "/forgot-password"
	SignOut        = "/sign-out"
	AuthCallback   = "/api/auth/callback"
	AuthConfirm    = "/api/auth/confirm"
)

// Protected paths.
const (
	Dashboard       = "/dashboard"
	AccountSettings = "/dashboard/account"
	// ResetPassword is where password-recovery links always land, regardless
	// of the link's own next parameter.
	ResetPassword = "/dashboard/account"
	NewSandbox    = "/sandboxes/new"
)

// Tenant-scoped paths. All take the team slug (or ID when no slug exists).

func Sandboxes(teamIDOrSlug string) string {
	return "/dashboard/" + teamIDOrSlug + "/sandboxes?tab=monitoring"
}

func SandboxInspect(teamIDOrSlug, sandboxID string) string {
	return "/dashboard/" + teamIDOrSlug + "/sandboxes/" + sandboxID + "/inspect"
}

func Templates(teamIDOrSlug string) string { return "/dashboard/" + teamIDOrSlug + "/templates" }
func Usage(teamIDOrSlug string) string     { return "/dashboard/" + teamIDOrSlug + "/usage" }
func Billing(teamIDOrSlug string) string   { return "/dashboard/" + teamIDOrSlug + "/billing" }
func Budget(teamIDOrSlug string) string    { return "/dashboard/" + teamIDOrSlug + "/budget" }
func Keys(teamIDOrSlug string) string      { return "/dashboard/" + teamIDOrSlug + "/keys" }
func General(teamIDOrSlug string) string   { return "/dashboard/" + teamIDOrSlug + "/general" }
func Members(teamIDOrSlug string) string   { return "/dashboard/" + teamIDOrSlug + "/members" }

func ResolvedAccountSettings(teamIDOrSlug string) string {
	return "/dashboard/" + teamIDOrSlug + "/account"
}
