package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/multioauth/internal/auth"
	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/respond"
	"github.com/devilmonastery/multioauth/server/internal/session"
)

// AuthMiddleware resolves the session user and guards admin routes
type AuthMiddleware struct {
	sessions *session.Manager
	groups   repositories.GroupRepository
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions *session.Manager, groups repositories.GroupRepository, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		groups:   groups,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate attaches the session user to the request context when the
// session token is valid. Requests without a session pass through. Admin
// membership is left to RequireAdmin.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.sessions.CurrentUser(r)
		if err != nil {
			if !errors.Is(err, session.ErrNoToken) {
				m.logger.Debug("ignoring invalid session token", slog.String("error", err.Error()))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
			UserID:   claims.UserID,
			Username: claims.Username,
			Provider: claims.Provider,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose user is not in the administrators group.
// Membership is looked up here so a failing group store only affects admin routes.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "login required")
			return
		}

		isAdmin, err := m.groups.IsMember(r.Context(), entities.AdministratorsGroup, user.UserID)
		if err != nil {
			m.logger.Error("failed to check admin membership",
				slog.String("uid", user.UserID),
				slog.String("error", err.Error()))
			respond.Error(w, http.StatusInternalServerError, respond.CodeError, "internal error")
			return
		}

		admin := *user
		admin.IsAdmin = isAdmin
		ctx := auth.SetUserInContext(r.Context(), &admin)
		if err := auth.RequireAdmin(ctx); err != nil {
			respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
