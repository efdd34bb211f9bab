package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/respond"
	"github.com/devilmonastery/multioauth/server/internal/session"
)

// Reasons passed to the host login page on failure
const (
	reasonProviderError = "provider-error"
	reasonState         = "invalid-state"
	reasonUnavailable   = "strategy-unavailable"
)

// LoginStrategies lists the host's own login options followed by the enabled
// strategies, for the login selection UI
func (h *Handler) LoginStrategies(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, map[string]any{"strategies": h.Registry.ListForLogin(h.HostStrategies)})
}

// BeginAuth redirects to the provider's authorization endpoint
func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	handler, ok := h.Registry.Get(name)
	if !ok {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "no-strategy")
		return
	}

	state, err := h.Sessions.BeginLogin(w, r, name)
	if err != nil {
		h.log.Error("failed to start login", slog.String("provider", name), slog.String("error", err.Error()))
		respond.Error(w, http.StatusInternalServerError, respond.CodeError, "internal error")
		return
	}

	h.log.Debug("redirecting to provider", slog.String("provider", name))
	http.Redirect(w, r, handler.BeginAuth(state), http.StatusFound)
}

// AuthCallback completes a login. The handler of the current registry
// snapshot is captured once and used for the whole exchange.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	start := time.Now()

	handler, ok := h.Registry.Get(name)
	if !ok {
		h.loginFailed(w, r, name, reasonUnavailable)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		h.log.Info("provider returned an error", slog.String("provider", name), slog.String("error", providerErr))
		metrics.RecordLogin(name, metrics.OutcomeExchange, time.Since(start))
		h.loginFailed(w, r, name, reasonProviderError)
		return
	}

	if err := h.Sessions.VerifyState(w, r, name, query.Get("state")); err != nil {
		if !errors.Is(err, session.ErrStateMismatch) {
			h.log.Error("failed to verify state", slog.String("error", err.Error()))
		}
		metrics.RecordLogin(name, metrics.OutcomeError, time.Since(start))
		h.loginFailed(w, r, name, reasonState)
		return
	}

	profile, err := handler.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		reason := services.LoginFailureReason(err)
		h.log.Warn("token exchange failed", slog.String("provider", name), slog.String("error", err.Error()))
		metrics.RecordLogin(name, reason, time.Since(start))
		h.loginFailed(w, r, name, reason)
		return
	}

	hook := func(ctx context.Context, uid string) error {
		user, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}
		return h.Sessions.EstablishSession(w, r, uid, user.Username, name)
	}

	if _, err := h.Login.Complete(r.Context(), handler.Config(), profile, hook); err != nil {
		h.loginFailed(w, r, name, services.LoginFailureReason(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(w, r); err != nil {
		h.log.Warn("failed to clear session", slog.String("error", err.Error()))
	}
	respond.OK(w, struct{}{})
}

// loginFailed hands the attempt to the host's authentication-failure page
func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, provider, reason string) {
	if err := h.Sessions.Clear(w, r); err != nil {
		h.log.Warn("failed to clear session", slog.String("provider", provider), slog.String("error", err.Error()))
	}
	http.Redirect(w, r, "/login?error="+url.QueryEscape(reason), http.StatusFound)
}
