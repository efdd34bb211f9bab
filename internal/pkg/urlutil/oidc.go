package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// DomainDiscoveryURL builds the well-known OIDC metadata URL for a bare domain.
// Returns a URL like: {scheme}://{domain}/.well-known/openid-configuration
func DomainDiscoveryURL(scheme, domain string) string {
	return fmt.Sprintf("%s://%s/.well-known/openid-configuration", scheme, domain)
}

// ValidDomain reports whether s is a bare host or host:port with no scheme, path,
// query or userinfo component.
func ValidDomain(s string) bool {
	if s == "" || strings.ContainsAny(s, "/?#@\\ \t\r\n") {
		return false
	}

	host := s
	if h, port, err := net.SplitHostPort(s); err == nil {
		if port == "" {
			return false
		}
		host = h
	}
	if host == "" {
		return false
	}

	u, err := url.Parse("https://" + s)
	return err == nil && u.Host == s
}
