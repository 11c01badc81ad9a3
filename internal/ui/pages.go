package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"tenantgate/internal/urls"
)

// banner holds the status message decoded from the query parameters.
type banner struct {
	Error   string
	Success string
}

func authLayout(title string, content ...Node) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Sandbox Cloud")),
			Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
			Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
			Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
			Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css")),
		),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}

func bannerNodes(b banner) []Node {
	var nodes []Node
	if b.Error != "" {
		nodes = append(nodes, P(Class("error"), Text(b.Error)))
	}
	if b.Success != "" {
		nodes = append(nodes, P(Class("success"), Text(b.Success)))
	}
	return nodes
}

func hiddenReturnTo(returnTo string) Node {
	if returnTo == "" {
		return nil
	}
	return Input(Type("hidden"), Name("returnTo"), Value(returnTo))
}

func oauthButtons(returnTo string) Node {
	return Div(
		Class("oauth-providers"),
		Form(
			Method("post"),
			Action("/auth/oauth"),
			Input(Type("hidden"), Name("provider"), Value("github")),
			hiddenReturnTo(returnTo),
			Button(Type("submit"), Class("btn"), Text("Continue with GitHub")),
		),
		Form(
			Method("post"),
			Action("/auth/oauth"),
			Input(Type("hidden"), Name("provider"), Value("google")),
			hiddenReturnTo(returnTo),
			Button(Type("submit"), Class("btn"), Text("Continue with Google")),
		),
	)
}

func signInPage(b banner, returnTo string) Node {
	content := bannerNodes(b)
	content = append(content,
		H1(Text("Sign in")),
		Form(
			Method("post"),
			Action(urls.SignIn),
			Class("login-form"),
			hiddenReturnTo(returnTo),
			Label(Text("Email")),
			Input(Type("email"), Name("email"), Required()),
			Label(Text("Password")),
			Input(Type("password"), Name("password"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Sign In")),
		),
		oauthButtons(returnTo),
		P(
			A(Href(urls.ForgotPassword), Text("Forgot password?")),
		),
		P(
			Text("No account? "),
			A(Href(urls.SignUp), Text("Sign up")),
		),
	)
	return authLayout("Sign in", content...)
}

func signUpPage(b banner, returnTo string) Node {
	content := bannerNodes(b)
	content = append(content,
		H1(Text("Create your account")),
		Form(
			Method("post"),
			Action(urls.SignUp),
			Class("login-form"),
			hiddenReturnTo(returnTo),
			Label(Text("Email")),
			Input(Type("email"), Name("email"), Required()),
			Label(Text("Password")),
			Input(Type("password"), Name("password"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Sign Up")),
		),
		oauthButtons(returnTo),
		P(
			Text("Already registered? "),
			A(Href(urls.SignIn), Text("Sign in")),
		),
	)
	return authLayout("Sign up", content...)
}

func forgotPasswordPage(b banner) Node {
	content := bannerNodes(b)
	content = append(content,
		H1(Text("Reset your password")),
		P(Text("Enter your email and we will send you a reset link.")),
		Form(
			Method("post"),
			Action(urls.ForgotPassword),
			Class("login-form"),
			Label(Text("Email")),
			Input(Type("email"), Name("email"), Required()),
			Button(Type("submit"), Class("btn btn-primary"), Text("Send reset link")),
		),
		P(
			A(Href(urls.SignIn), Text("Back to sign in")),
		),
	)
	return authLayout("Forgot password", content...)
}
