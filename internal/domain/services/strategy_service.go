package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"

	"github.com/devilmonastery/multioauth/internal/auth/oidc"
	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// Reloader rebuilds the live handler set
type Reloader interface {
	Reload(ctx context.Context) error
}

// Discoverer looks up OpenID provider metadata by domain
type Discoverer interface {
	Discover(ctx context.Context, domain string) (*oidc.Endpoints, error)
}

// StrategyService is the admin surface over stored strategies
type StrategyService struct {
	repo       repositories.StrategyRepository
	registry   Reloader
	discoverer Discoverer
	logger     *slog.Logger
}

func NewStrategyService(repo repositories.StrategyRepository, registry Reloader, discoverer Discoverer) *StrategyService {
	return &StrategyService{
		repo:       repo,
		registry:   registry,
		discoverer: discoverer,
		logger:     slog.Default().With(slog.String("service", "strategy")),
	}
}

// Slug normalizes a strategy display name into its storage name
func Slug(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

func (s *StrategyService) Get(ctx context.Context, name string) (*entities.StrategyConfig, error) {
	return s.repo.Get(ctx, Slug(name))
}

// List returns every stored strategy, enabled or not
func (s *StrategyService) List(ctx context.Context) ([]*entities.StrategyConfig, error) {
	return s.repo.List(ctx, true)
}

// Save validates and stores cfg under the slug of pathName, or of cfg.Name when
// pathName is empty, then reloads the registry and returns the refreshed list.
func (s *StrategyService) Save(ctx context.Context, pathName string, cfg *entities.StrategyConfig) ([]*entities.StrategyConfig, error) {
	name := pathName
	if strings.TrimSpace(name) == "" {
		name = cfg.Name
	}
	name = Slug(name)

	normalized := *cfg
	normalized.Name = name
	normalized.CallbackURL = ""
	trimFields(&normalized)

	if name == "" || !normalized.HasRequiredFields() {
		return nil, ErrInvalidData
	}

	if err := s.repo.Save(ctx, &normalized); err != nil {
		return nil, err
	}
	s.logger.Info("strategy saved", slog.String("provider", name), slog.Bool("enabled", normalized.Enabled))

	s.reload(ctx)
	return s.repo.List(ctx, true)
}

// Delete removes a strategy; deleting an unknown name is not an error
func (s *StrategyService) Delete(ctx context.Context, name string) ([]*entities.StrategyConfig, error) {
	name = Slug(name)
	if name == "" {
		return nil, ErrInvalidData
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return nil, err
	}
	s.logger.Info("strategy deleted", slog.String("provider", name))

	s.reload(ctx)
	return s.repo.List(ctx, true)
}

// Discover returns the endpoints a domain publishes; any failure is ErrInvalidDomain
func (s *StrategyService) Discover(ctx context.Context, domain string) (*oidc.Endpoints, error) {
	endpoints, err := s.discoverer.Discover(ctx, strings.TrimSpace(domain))
	if err != nil {
		s.logger.Info("discovery failed", slog.String("domain", domain), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	return endpoints, nil
}

// reload failures leave the previous handler set live; the store already holds
// the mutation and the next reload will pick it up
func (s *StrategyService) reload(ctx context.Context) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Reload(ctx); err != nil {
		s.logger.Error("registry reload after mutation failed", slog.String("error", err.Error()))
	}
}

func trimFields(c *entities.StrategyConfig) {
	for _, p := range []*string{
		&c.AuthURL, &c.TokenURL, &c.UserRoute, &c.ClientID, &c.Secret,
		&c.Scope, &c.IconURL, &c.FaIcon, &c.IDKey,
	} {
		*p = strings.TrimSpace(*p)
	}
}
