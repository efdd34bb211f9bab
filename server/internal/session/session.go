package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/devilmonastery/multioauth/internal/auth"
)

const (
	// SessionName is the name of the session cookie
	SessionName = "multioauth_session"

	// TokenKey is the session key for storing the JWT token
	TokenKey = "token"

	stateKey    = "oauth_state"
	providerKey = "oauth_provider"
)

var (
	// ErrNoToken is returned when no token is found in the session
	ErrNoToken = errors.New("no token in session")

	// ErrStateMismatch is returned when a callback does not carry the state issued for it
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// Manager wraps gorilla/sessions for the login state and the session token
type Manager struct {
	store *sessions.CookieStore
	jwt   *auth.JWTManager
}

// NewManager creates a new session manager
func NewManager(secretKey []byte, jwt *auth.JWTManager, lifetime time.Duration, secure bool) *Manager {
	store := sessions.NewCookieStore(secretKey)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store: store,
		jwt:   jwt,
	}
}

func (m *Manager) session(r *http.Request) *sessions.Session {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		// Undecodable cookie, start over
		session, _ = m.store.New(r, SessionName)
	}
	return session
}

// BeginLogin issues a one-time state for provider and stores it in the session
func (m *Manager) BeginLogin(w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	session := m.session(r)
	session.Values[stateKey] = state
	session.Values[providerKey] = provider
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

// VerifyState checks the callback state against the one issued for provider
// and consumes it
func (m *Manager) VerifyState(w http.ResponseWriter, r *http.Request, provider, state string) error {
	session := m.session(r)
	saved, _ := session.Values[stateKey].(string)
	savedProvider, _ := session.Values[providerKey].(string)

	delete(session.Values, stateKey)
	delete(session.Values, providerKey)
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if saved == "" || savedProvider != provider || subtle.ConstantTimeCompare([]byte(saved), []byte(state)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

// EstablishSession issues a session token for uid and stores it in the cookie
func (m *Manager) EstablishSession(w http.ResponseWriter, r *http.Request, uid, username, provider string) error {
	token, _, err := m.jwt.GenerateToken(uid, username, provider)
	if err != nil {
		return err
	}

	session := m.session(r)
	session.Values[TokenKey] = token
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// CurrentUser returns the claims of the session token on r
func (m *Manager) CurrentUser(r *http.Request) (*auth.Claims, error) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return nil, ErrNoToken
	}

	token, ok := session.Values[TokenKey].(string)
	if !ok || token == "" {
		return nil, ErrNoToken
	}
	return m.jwt.ValidateToken(token)
}

// Clear removes the session (logout, failed login)
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	session := m.session(r)
	session.Values = make(map[interface{}]interface{})

	// Set MaxAge to -1 to delete the session
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
