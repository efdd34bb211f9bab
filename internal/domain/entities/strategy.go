package entities

import "strings"

// DefaultScope is requested when a strategy does not configure its own scope
const DefaultScope = "openid email profile"

// StrategyConfig is one configured OAuth2/OIDC identity provider.
// Name is the slug: primary key, URL path segment and storage key suffix.
type StrategyConfig struct {
	Name      string `json:"name" yaml:"name"`
	AuthURL   string `json:"authUrl" yaml:"authUrl"`
	TokenURL  string `json:"tokenUrl" yaml:"tokenUrl"`
	UserRoute string `json:"userRoute" yaml:"userRoute"` // profile (userinfo) endpoint
	ClientID  string `json:"id" yaml:"id"`
	Secret    string `json:"secret" yaml:"secret"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Scope     string `json:"scope,omitempty" yaml:"scope,omitempty"`

	IconURL string `json:"iconUrl,omitempty" yaml:"iconUrl,omitempty"` // http(s) URL or data: reference
	FaIcon  string `json:"faIcon,omitempty" yaml:"faIcon,omitempty"`
	IDKey   string `json:"idKey,omitempty" yaml:"idKey,omitempty"` // claim holding the subject id

	UsernameViaEmail      bool `json:"usernameViaEmail" yaml:"usernameViaEmail"`
	ForceUsernameViaEmail bool `json:"forceUsernameViaEmail" yaml:"forceUsernameViaEmail"`
	TrustEmailVerified    bool `json:"trustEmailVerified" yaml:"trustEmailVerified"`
	SyncFullname          bool `json:"syncFullname" yaml:"syncFullname"`
	SyncPicture           bool `json:"syncPicture" yaml:"syncPicture"`

	LoginLabel    string `json:"loginLabel,omitempty" yaml:"loginLabel,omitempty"`
	RegisterLabel string `json:"registerLabel,omitempty" yaml:"registerLabel,omitempty"`

	// CallbackURL is derived from the base URL on read and never stored
	CallbackURL string `json:"callbackUrl,omitempty" yaml:"-"`
}

// StrategyBoolFields names the boolean settings of a strategy as they appear on the wire
var StrategyBoolFields = []string{
	"enabled",
	"usernameViaEmail",
	"forceUsernameViaEmail",
	"trustEmailVerified",
	"syncFullname",
	"syncPicture",
}

// Scopes returns the configured scope split on whitespace, falling back to DefaultScope
func (s *StrategyConfig) Scopes() []string {
	scope := strings.TrimSpace(s.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	return strings.Fields(scope)
}

// EffectiveScope returns the scope string actually requested from the provider
func (s *StrategyConfig) EffectiveScope() string {
	return strings.Join(s.Scopes(), " ")
}

// HasRequiredFields reports whether every field needed to save the strategy is present
func (s *StrategyConfig) HasRequiredFields() bool {
	for _, v := range []string{s.AuthURL, s.TokenURL, s.ClientID, s.Secret} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// LinkField is the user record field holding this provider's subject id
func (s *StrategyConfig) LinkField() string {
	return LinkField(s.Name)
}

// LoginDescriptor is what the login-selection UI and the callback router see
// for one enabled strategy.
type LoginDescriptor struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	CallbackURL   string `json:"callbackURL"`
	Icon          string `json:"icon"`
	IconHTML      string `json:"iconHTML,omitempty"`
	CustomIcon    bool   `json:"customIcon"`
	LoginLabel    string `json:"loginLabel,omitempty"`
	RegisterLabel string `json:"registerLabel,omitempty"`
	Scope         string `json:"scope"`
}
