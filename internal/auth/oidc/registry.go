package oidc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
	"github.com/devilmonastery/multioauth/internal/pkg/urlutil"
)

// DefaultIcon is the glyph shown for strategies without a custom icon
const DefaultIcon = "fa-check-square"

var labelPolicy = bluemonday.StrictPolicy()

// StrategySource supplies the configs a registry is built from
type StrategySource interface {
	List(ctx context.Context, includeDisabled bool) ([]*entities.StrategyConfig, error)
}

// snapshot is one immutable generation of live handlers
type snapshot struct {
	generation  uint64
	handlers    map[string]*AuthHandler
	names       []string
	descriptors []entities.LoginDescriptor
}

// Registry holds the live handler set, rebuilt from the store on Reload
type Registry struct {
	source     StrategySource
	baseURL    string
	httpClient *http.Client
	current    atomic.Pointer[snapshot]
	reloadMu   sync.Mutex
	logger     *slog.Logger
}

// NewRegistry creates an empty registry; call Reload to populate it
func NewRegistry(source StrategySource, baseURL string, httpClient *http.Client) *Registry {
	r := &Registry{
		source:     source,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     slog.Default().With(slog.String("component", "registry")),
	}
	r.current.Store(&snapshot{handlers: map[string]*AuthHandler{}})
	return r
}

// Reload rebuilds the handler set from every enabled stored strategy.
// On failure the previous set stays in place.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	configs, err := r.source.List(ctx, false)
	if err != nil {
		metrics.RecordReload(0, err)
		r.logger.Error("registry reload failed, keeping previous handlers",
			slog.Uint64("generation", r.Generation()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to load strategies: %w", err)
	}

	next := r.materialize(configs)
	r.current.Store(next)
	metrics.RecordReload(len(next.names), nil)

	r.logger.Info("registry reloaded",
		slog.Uint64("generation", next.generation),
		slog.Int("handlers", len(next.names)))
	return nil
}

// materialize builds a new snapshot; disabled or incomplete configs are skipped
func (r *Registry) materialize(configs []*entities.StrategyConfig) *snapshot {
	next := &snapshot{
		generation: r.current.Load().generation + 1,
		handlers:   make(map[string]*AuthHandler, len(configs)),
	}

	for _, cfg := range configs {
		if cfg == nil || !cfg.Enabled {
			continue
		}
		if cfg.Name == "" || !cfg.HasRequiredFields() {
			r.logger.Warn("skipping incomplete strategy", slog.String("provider", cfg.Name))
			continue
		}
		if _, dup := next.handlers[cfg.Name]; dup {
			continue
		}
		next.handlers[cfg.Name] = NewAuthHandler(*cfg, r.baseURL, r.httpClient)
		next.names = append(next.names, cfg.Name)
	}

	sort.Strings(next.names)
	for _, name := range next.names {
		next.descriptors = append(next.descriptors, describe(next.handlers[name].cfg))
	}
	return next
}

// Get returns the handler for name in the current generation
func (r *Registry) Get(name string) (*AuthHandler, bool) {
	h, ok := r.current.Load().handlers[name]
	return h, ok
}

// Names returns the sorted names of live handlers
func (r *Registry) Names() []string {
	names := r.current.Load().names
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Generation increments on every successful reload
func (r *Registry) Generation() uint64 {
	return r.current.Load().generation
}

// ListForLogin returns existing followed by one login descriptor per live
// strategy. existing is not modified.
func (r *Registry) ListForLogin(existing []entities.LoginDescriptor) []entities.LoginDescriptor {
	descriptors := r.current.Load().descriptors
	out := make([]entities.LoginDescriptor, 0, len(existing)+len(descriptors))
	out = append(out, existing...)
	return append(out, descriptors...)
}

func describe(cfg entities.StrategyConfig) entities.LoginDescriptor {
	d := entities.LoginDescriptor{
		Name:          cfg.Name,
		URL:           urlutil.LoginPath(cfg.Name),
		CallbackURL:   urlutil.CallbackPath(cfg.Name),
		Icon:          DefaultIcon,
		LoginLabel:    labelPolicy.Sanitize(cfg.LoginLabel),
		RegisterLabel: labelPolicy.Sanitize(cfg.RegisterLabel),
		Scope:         cfg.EffectiveScope(),
	}
	if cfg.FaIcon != "" {
		d.Icon = cfg.FaIcon
	}
	if cfg.IconURL != "" {
		d.CustomIcon = true
		d.IconHTML = IconHTML(cfg.IconURL)
	}
	return d
}

// IconHTML renders a custom icon reference as an img tag. Single quotes in
// the reference are escaped so it cannot leave the src attribute.
func IconHTML(iconURL string) string {
	return "<img src='" + strings.ReplaceAll(iconURL, "'", "&#39;") + "' />"
}
