package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
)

func TestDiscoverCachesSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/.well-known/openid-configuration", r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 "https://idp.example.com",
			"authorization_endpoint": "https://idp.example.com/authorize",
			"token_endpoint":         "https://idp.example.com/token",
			"userinfo_endpoint":      "https://idp.example.com/userinfo",
		})
	}))
	defer srv.Close()

	d := NewDiscoverer(time.Hour, time.Second, WithHTTPClient(srv.Client()))
	domain := strings.TrimPrefix(srv.URL, "https://")

	eps, err := d.Discover(context.Background(), domain)
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com/authorize", eps.AuthorizationEndpoint)
	assert.Equal(t, "https://idp.example.com/token", eps.TokenEndpoint)
	assert.Equal(t, "https://idp.example.com/userinfo", eps.UserinfoEndpoint)

	_, err = d.Discover(context.Background(), domain)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDiscoverFailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	d := NewDiscoverer(time.Hour, time.Second, WithScheme("http"))
	domain := strings.TrimPrefix(srv.URL, "http://")

	_, err := d.Discover(context.Background(), domain)
	require.Error(t, err)
	_, err = d.Discover(context.Background(), domain)
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDiscoverRejectsBadDomains(t *testing.T) {
	d := NewDiscoverer(time.Hour, time.Second)
	for _, domain := range []string{"", "https://idp.example.com", "idp.example.com/path", "user@idp.example.com"} {
		_, err := d.Discover(context.Background(), domain)
		assert.ErrorIs(t, err, ErrBadDomain, domain)
	}
}

func newProviderServer(t *testing.T, profile string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})
	return httptest.NewServer(mux)
}

func testConfig(srvURL, name string) entities.StrategyConfig {
	return entities.StrategyConfig{
		Name:      name,
		AuthURL:   srvURL + "/authorize",
		TokenURL:  srvURL + "/token",
		UserRoute: srvURL + "/userinfo",
		ClientID:  "client",
		Secret:    "secret",
		Enabled:   true,
	}
}

func TestAuthHandlerBeginAuth(t *testing.T) {
	h := NewAuthHandler(testConfig("https://idp.example.com", "okta"), "https://forum.example.com/", nil)

	u, err := url.Parse(h.BeginAuth("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "https://forum.example.com/auth/okta/callback", q.Get("redirect_uri"))
	assert.Equal(t, "https://forum.example.com/auth/okta/callback", h.Config().CallbackURL)
}

func TestAuthHandlerExchange(t *testing.T) {
	srv := newProviderServer(t, `{"sub":"abc","email":"jdoe@example.com"}`)
	defer srv.Close()

	h := NewAuthHandler(testConfig(srv.URL, "okta"), "https://forum.example.com", srv.Client())

	body, err := h.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sub":"abc","email":"jdoe@example.com"}`, string(body))

	_, err = h.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrExchangeFailed)
}

func TestAuthHandlerExchangeProfileFailure(t *testing.T) {
	srv := newProviderServer(t, `{}`)
	defer srv.Close()

	cfg := testConfig(srv.URL, "okta")
	cfg.UserRoute = srv.URL + "/missing"
	h := NewAuthHandler(cfg, "https://forum.example.com", srv.Client())

	_, err := h.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrProfileFetch)
}

type fakeSource struct {
	configs []*entities.StrategyConfig
	err     error
}

func (f *fakeSource) List(ctx context.Context, includeDisabled bool) ([]*entities.StrategyConfig, error) {
	return f.configs, f.err
}

func TestRegistryReload(t *testing.T) {
	okta := testConfig("https://idp.example.com", "okta")
	okta.IconURL = "data:image/svg+xml;utf8,<svg x='1'/>"
	okta.LoginLabel = "<b>Sign in</b> with Okta"
	google := testConfig("https://accounts.google.com", "google")
	google.FaIcon = "fa-google"
	google.Scope = "openid  email"
	disabled := testConfig("https://idp.example.com", "old")
	disabled.Enabled = false
	incomplete := entities.StrategyConfig{Name: "broken", Enabled: true}

	src := &fakeSource{configs: []*entities.StrategyConfig{&okta, &google, &disabled, &incomplete}}
	r := NewRegistry(src, "https://forum.example.com", nil)
	assert.Equal(t, uint64(0), r.Generation())
	assert.Empty(t, r.ListForLogin(nil))

	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, uint64(1), r.Generation())
	assert.Equal(t, []string{"google", "okta"}, r.Names())

	_, ok := r.Get("old")
	assert.False(t, ok)
	_, ok = r.Get("broken")
	assert.False(t, ok)

	descs := r.ListForLogin(nil)
	require.Len(t, descs, 2)

	assert.Equal(t, "google", descs[0].Name)
	assert.Equal(t, "fa-google", descs[0].Icon)
	assert.False(t, descs[0].CustomIcon)
	assert.Equal(t, "openid email", descs[0].Scope)

	assert.Equal(t, "okta", descs[1].Name)
	assert.Equal(t, "/auth/okta", descs[1].URL)
	assert.Equal(t, "/auth/okta/callback", descs[1].CallbackURL)
	assert.Equal(t, DefaultIcon, descs[1].Icon)
	assert.True(t, descs[1].CustomIcon)
	assert.Equal(t, "<img src='data:image/svg+xml;utf8,<svg x=&#39;1&#39;/>' />", descs[1].IconHTML)
	assert.Equal(t, "Sign in with Okta", descs[1].LoginLabel)
	assert.Equal(t, "openid email profile", descs[1].Scope)
}

func TestListForLoginAppendsToHostOptions(t *testing.T) {
	okta := testConfig("https://idp.example.com", "okta")
	src := &fakeSource{configs: []*entities.StrategyConfig{&okta}}
	r := NewRegistry(src, "https://forum.example.com", nil)
	require.NoError(t, r.Reload(context.Background()))

	host := []entities.LoginDescriptor{{Name: "local", URL: "/login/local"}}
	descs := r.ListForLogin(host)
	require.Len(t, descs, 2)
	assert.Equal(t, "local", descs[0].Name)
	assert.Equal(t, "okta", descs[1].Name)
	assert.Len(t, host, 1)

	descs[0].Name = "changed"
	assert.Equal(t, "local", host[0].Name)
}

func TestRegistryReloadFailureKeepsPreviousSet(t *testing.T) {
	okta := testConfig("https://idp.example.com", "okta")
	src := &fakeSource{configs: []*entities.StrategyConfig{&okta}}
	r := NewRegistry(src, "https://forum.example.com", nil)
	require.NoError(t, r.Reload(context.Background()))

	before, ok := r.Get("okta")
	require.True(t, ok)

	src.err = errors.New("store down")
	src.configs = nil
	require.Error(t, r.Reload(context.Background()))

	after, ok := r.Get("okta")
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.Equal(t, uint64(1), r.Generation())
}

func TestHandlerCapturesConfigAcrossReload(t *testing.T) {
	okta := testConfig("https://idp.example.com", "okta")
	src := &fakeSource{configs: []*entities.StrategyConfig{&okta}}
	r := NewRegistry(src, "https://forum.example.com", nil)
	require.NoError(t, r.Reload(context.Background()))

	inFlight, _ := r.Get("okta")

	okta.ClientID = "rotated"
	require.NoError(t, r.Reload(context.Background()))

	assert.Equal(t, "client", inFlight.Config().ClientID)
	current, _ := r.Get("okta")
	assert.Equal(t, "rotated", current.Config().ClientID)
}
