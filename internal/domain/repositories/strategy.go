package repositories

import (
	"context"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
)

// StrategyRepository persists provider configurations
type StrategyRepository interface {
	// Save replaces the config stored under its name and bumps it in the ordered index
	Save(ctx context.Context, cfg *entities.StrategyConfig) error

	// Get returns the config stored under name, or ErrStrategyNotFound
	Get(ctx context.Context, name string) (*entities.StrategyConfig, error)

	// List returns configs sorted by name, only enabled ones unless includeDisabled is set
	List(ctx context.Context, includeDisabled bool) ([]*entities.StrategyConfig, error)

	// Delete removes the config and its index entry; deleting twice is not an error
	Delete(ctx context.Context, name string) error

	// Names returns every indexed strategy name
	Names(ctx context.Context) ([]string, error)
}

// LinkRepository stores the forward half of account links
type LinkRepository interface {
	// GetUID returns the local user linked to (provider, subjectID), or ErrLinkNotFound
	GetUID(ctx context.Context, provider, subjectID string) (string, error)

	// SetLink writes the forward mapping (provider, subjectID) -> uid
	SetLink(ctx context.Context, link entities.AccountLink) error

	// DeleteLink removes the forward mapping; removing a missing link is not an error
	DeleteLink(ctx context.Context, provider, subjectID string) error
}
