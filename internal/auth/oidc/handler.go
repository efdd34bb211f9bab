package oidc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/pkg/urlutil"
)

// maxBodyBytes caps provider responses read into memory
const maxBodyBytes = 1 << 20

var (
	// ErrExchangeFailed is returned when the authorization code cannot be traded for a token
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetch is returned when the profile endpoint cannot be read
	ErrProfileFetch = errors.New("profile fetch failed")
)

// AuthHandler is the live authorization-code handler of one strategy.
// It owns a copy of the config it was built from, so a registry reload
// never changes a handler already in use.
type AuthHandler struct {
	cfg        entities.StrategyConfig
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewAuthHandler builds a handler for cfg with callback ${baseURL}/auth/{name}/callback.
// httpClient may be nil to use the default client.
func NewAuthHandler(cfg entities.StrategyConfig, baseURL string, httpClient *http.Client) *AuthHandler {
	cfg.CallbackURL = urlutil.CallbackURL(baseURL, cfg.Name)
	return &AuthHandler{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.Secret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.CallbackURL,
			Scopes:      cfg.Scopes(),
		},
		httpClient: httpClient,
	}
}

func (h *AuthHandler) Name() string {
	return h.cfg.Name
}

// Config returns the config captured when the handler was built
func (h *AuthHandler) Config() entities.StrategyConfig {
	return h.cfg
}

// BeginAuth returns the provider authorization URL carrying state
func (h *AuthHandler) BeginAuth(state string) string {
	return h.oauth.AuthCodeURL(state)
}

// Exchange trades the callback code for an access token and returns the raw
// body of the strategy's profile endpoint, fetched with the token as a bearer credential.
func (h *AuthHandler) Exchange(ctx context.Context, code string) ([]byte, error) {
	if h.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	}

	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if h.cfg.UserRoute == "" {
		return nil, fmt.Errorf("%w: no profile endpoint configured", ErrProfileFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.UserRoute, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: profile endpoint returned status %d", ErrProfileFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	return body, nil
}
