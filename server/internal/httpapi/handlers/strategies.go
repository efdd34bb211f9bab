package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/internal/pkg/textutil"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/respond"
)

func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.Strategies.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]any{"strategies": strategies})
}

func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	strategy, err := h.Strategies.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]any{"strategy": strategy})
}

// SaveStrategy creates or replaces a strategy. The name comes from the path
// when present, otherwise from the body.
func (h *Handler) SaveStrategy(w http.ResponseWriter, r *http.Request) {
	cfg, err := decodeStrategy(w, r)
	if err != nil {
		h.log.Debug("rejecting strategy payload")
		h.fail(w, r, err)
		return
	}

	strategies, err := h.Strategies.Save(r.Context(), mux.Vars(r)["name"], cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]any{"strategies": strategies})
}

func (h *Handler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.Strategies.Delete(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]any{"strategies": strategies})
}

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.Strategies.Discover(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, endpoints)
}

func (h *Handler) LookupUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uid, err := h.UserData.LookupUID(r.Context(), vars["provider"], vars["oAuthId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, map[string]string{"uid": uid})
}

// decodeStrategy reads a JSON, form-encoded or multipart strategy. Checkbox style
// booleans ("on", "1", "yes") are accepted for the boolean settings.
func decodeStrategy(w http.ResponseWriter, r *http.Request) (*entities.StrategyConfig, error) {
	fields := map[string]any{}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
		}
		copyFormValues(fields, r.MultipartForm.Value)
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
		}
		copyFormValues(fields, r.PostForm)
	default:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
		}
	}

	for _, key := range entities.StrategyBoolFields {
		if v, ok := fields[key]; ok && v != nil {
			fields[key] = textutil.ParseBool(fmt.Sprint(v))
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
	}
	var cfg entities.StrategyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
	}
	cfg.CallbackURL = ""
	return &cfg, nil
}

func copyFormValues(fields map[string]any, values map[string][]string) {
	for key, v := range values {
		if len(v) > 0 {
			fields[key] = v[0]
		}
	}
}
