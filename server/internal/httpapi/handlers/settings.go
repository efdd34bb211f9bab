package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/respond"
)

func (h *Handler) GetAssociations(w http.ResponseWriter, r *http.Request) {
	associations, err := h.Groups.Associations(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, entities.NewAssociationSettings(associations))
}

// PutAssociations replaces the role to group associations. The body uses the
// parallel-list settings form.
func (h *Handler) PutAssociations(w http.ResponseWriter, r *http.Request) {
	var settings entities.AssociationSettings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&settings); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", services.ErrInvalidData, err))
		return
	}

	associations := settings.Associations()
	if err := h.Groups.SaveAssociations(r.Context(), associations); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("role associations updated", slog.Int("count", len(associations)))
	respond.OK(w, entities.NewAssociationSettings(associations))
}

func (h *Handler) GetUserLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.UserData.Links(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]any{"links": links})
}

func (h *Handler) DeleteUserLinks(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	removed, err := h.UserData.DeleteUserData(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("account links removed", slog.String("uid", uid), slog.Int("removed", removed))
	respond.OK(w, map[string]int{"removed": removed})
}
