package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/multioauth/internal/auth/oidc"
	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/middleware"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/respond"
	"github.com/devilmonastery/multioauth/server/internal/session"
)

// APIPrefix is where the admin API is mounted
const APIPrefix = "/api/v3/plugins/oauth2-multiple"

// maxBodyBytes caps admin request bodies
const maxBodyBytes = 1 << 20

// Deps are the collaborators the HTTP surface needs
type Deps struct {
	Strategies *services.StrategyService
	Login      *services.LoginService
	Groups     *services.GroupSynchronizer
	UserData   *services.UserDataService
	Registry   *oidc.Registry
	Sessions   *session.Manager
	Users      repositories.UserRepository
	Health     func(ctx context.Context) error

	// HostStrategies are login options the host offers on its own. They are
	// listed ahead of the OAuth2 strategies.
	HostStrategies []entities.LoginDescriptor
}

// Handler holds dependencies for all HTTP handlers
type Handler struct {
	Deps
	log *slog.Logger
}

// New creates a new handler with dependencies
func New(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{
		Deps: deps,
		log:  logger.With(slog.String("component", "http_handler")),
	}
}

// Register mounts every route on router. Admin routes pass through authMw.
func (h *Handler) Register(router *mux.Router, authMw *middleware.AuthMiddleware) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/login-strategies", h.LoginStrategies).Methods("GET")
	router.HandleFunc("/auth/{name}", h.BeginAuth).Methods("GET")
	router.HandleFunc("/auth/{name}/callback", h.AuthCallback).Methods("GET")
	router.HandleFunc("/logout", h.Logout).Methods("POST")

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(authMw.RequireAdmin)
	api.HandleFunc("/strategies", h.ListStrategies).Methods("GET")
	api.HandleFunc("/strategies", h.SaveStrategy).Methods("POST")
	api.HandleFunc("/strategies/{name}", h.GetStrategy).Methods("GET")
	api.HandleFunc("/strategies/{name}", h.SaveStrategy).Methods("POST")
	api.HandleFunc("/strategies/{name}", h.DeleteStrategy).Methods("DELETE")
	api.HandleFunc("/discover", h.Discover).Methods("GET")
	api.HandleFunc("/provider/{provider}/user/{oAuthId}", h.LookupUser).Methods("GET")
	api.HandleFunc("/settings/associations", h.GetAssociations).Methods("GET")
	api.HandleFunc("/settings/associations", h.PutAssociations).Methods("PUT")
	api.HandleFunc("/users/{uid}/links", h.GetUserLinks).Methods("GET")
	api.HandleFunc("/users/{uid}/links", h.DeleteUserLinks).Methods("DELETE")
}

// HealthCheck reports whether the backing store is reachable
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			h.log.Error("health check failed", slog.String("error", err.Error()))
			respond.Error(w, http.StatusServiceUnavailable, respond.CodeError, "store unavailable")
			return
		}
	}
	respond.OK(w, map[string]string{"status": "healthy"})
}

// fail maps a service error onto the envelope
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidData):
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, services.ErrInvalidData.Error())
	case errors.Is(err, services.ErrInvalidDomain):
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, services.ErrInvalidDomain.Error())
	case errors.Is(err, repositories.ErrStrategyNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "no-strategy")
	case errors.Is(err, repositories.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "no-user")
	default:
		h.log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respond.Error(w, http.StatusInternalServerError, respond.CodeError, "internal error")
	}
}
