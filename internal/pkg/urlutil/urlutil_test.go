package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		slug    string
		want    string
	}{
		{
			name:    "basic URL",
			baseURL: "https://forum.example.com",
			slug:    "okta",
			want:    "https://forum.example.com/auth/okta/callback",
		},
		{
			name:    "trailing slash trimmed",
			baseURL: "https://forum.example.com/",
			slug:    "okta",
			want:    "https://forum.example.com/auth/okta/callback",
		},
		{
			name:    "relative path install",
			baseURL: "https://example.com/forum",
			slug:    "my-idp",
			want:    "https://example.com/forum/auth/my-idp/callback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CallbackURL(tt.baseURL, tt.slug))
		})
	}
}

func TestLoginPaths(t *testing.T) {
	assert.Equal(t, "/auth/okta", LoginPath("okta"))
	assert.Equal(t, "/auth/okta/callback", CallbackPath("okta"))
}

func TestValidDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"accounts.google.com", true},
		{"login.example.com:8443", true},
		{"127.0.0.1:61234", true},
		{"", false},
		{"https://accounts.google.com", false},
		{"example.com/path", false},
		{"user@example.com", false},
		{"example.com?x=1", false},
		{"example.com:", false},
		{"exa mple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDomain(tt.domain))
		})
	}
}

func TestDomainDiscoveryURL(t *testing.T) {
	assert.Equal(t,
		"https://accounts.google.com/.well-known/openid-configuration",
		DomainDiscoveryURL("https", "accounts.google.com"))
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://cdn.example.com/a.png"))
	assert.True(t, IsHTTPURL("http://cdn.example.com/a.png"))
	assert.False(t, IsHTTPURL("javascript:alert(1)"))
	assert.False(t, IsHTTPURL("/relative.png"))
	assert.False(t, IsHTTPURL("data:image/png;base64,AAAA"))
}
