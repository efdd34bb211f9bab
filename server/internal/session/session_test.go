package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/multioauth/internal/auth"
)

func newManager() *Manager {
	return NewManager([]byte("0123456789abcdef0123456789abcdef"), auth.NewJWTManager("jwt-key", time.Hour), time.Hour, false)
}

// carry copies the cookies set on rec onto a new request
func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cookies := rec.Result().Cookies()
	if len(cookies) > 0 {
		req.AddCookie(cookies[len(cookies)-1])
	}
	return req
}

func TestStateRoundTrip(t *testing.T) {
	m := newManager()

	rec := httptest.NewRecorder()
	state, err := m.BeginLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/okta", nil), "okta")
	require.NoError(t, err)
	require.NotEmpty(t, state)

	callback := carry(rec)
	rec2 := httptest.NewRecorder()
	require.NoError(t, m.VerifyState(rec2, callback, "okta", state))

	// consumed
	rec3 := httptest.NewRecorder()
	assert.ErrorIs(t, m.VerifyState(rec3, carry(rec2), "okta", state), ErrStateMismatch)
}

func TestStateMismatch(t *testing.T) {
	m := newManager()

	rec := httptest.NewRecorder()
	state, err := m.BeginLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/okta", nil), "okta")
	require.NoError(t, err)

	assert.ErrorIs(t, m.VerifyState(httptest.NewRecorder(), carry(rec), "okta", "forged"), ErrStateMismatch)
	assert.ErrorIs(t, m.VerifyState(httptest.NewRecorder(), carry(rec), "google", state), ErrStateMismatch)
	assert.ErrorIs(t, m.VerifyState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "okta", ""), ErrStateMismatch)
}

func TestEstablishAndClearSession(t *testing.T) {
	m := newManager()

	_, err := m.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoToken)

	rec := httptest.NewRecorder()
	require.NoError(t, m.EstablishSession(rec, httptest.NewRequest(http.MethodGet, "/", nil), "42", "jdoe", "okta"))

	claims, err := m.CurrentUser(carry(rec))
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "okta", claims.Provider)

	cleared := httptest.NewRecorder()
	require.NoError(t, m.Clear(cleared, carry(rec)))
	cookies := cleared.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[len(cookies)-1].MaxAge < 0)
}
