package urlutil

import (
	"net/url"
	"strings"
)

// LoginPath returns the login entry point of a strategy: /auth/{name}
func LoginPath(name string) string {
	return "/auth/" + url.PathEscape(name)
}

// CallbackPath returns the provider callback path of a strategy: /auth/{name}/callback
func CallbackPath(name string) string {
	return LoginPath(name) + "/callback"
}

// CallbackURL returns the absolute callback URL registered with the provider.
// Returns a URL like: {baseURL}/auth/{name}/callback
// Trailing slashes on baseURL are trimmed to avoid double slashes.
func CallbackURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + CallbackPath(name)
}

// IsHTTPURL reports whether s is an absolute http or https URL
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
