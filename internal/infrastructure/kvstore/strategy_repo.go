// Package kvstore implements the strategy and link repositories on top of a KeyValueStore
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/pkg/urlutil"
)

// StrategyIndexKey is the sorted set of strategy names scored by modification time in ms
const StrategyIndexKey = "oauth2-multiple:strategies"

// StrategyObjectKey returns the object key holding one strategy
func StrategyObjectKey(name string) string {
	return StrategyIndexKey + ":" + name
}

type strategyRepository struct {
	kv      repositories.KeyValueStore
	baseURL string
	now     func() time.Time
	logger  *slog.Logger
}

// NewStrategyRepository creates a strategy repository. baseURL is used to derive
// each listed strategy's callback URL.
func NewStrategyRepository(kv repositories.KeyValueStore, baseURL string) repositories.StrategyRepository {
	return &strategyRepository{
		kv:      kv,
		baseURL: baseURL,
		now:     time.Now,
		logger:  slog.Default().With(slog.String("repo", "strategy")),
	}
}

func (r *strategyRepository) Save(ctx context.Context, cfg *entities.StrategyConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("failed to save strategy: name is required")
	}

	if err := r.kv.SetObject(ctx, StrategyObjectKey(cfg.Name), encodeStrategy(cfg)); err != nil {
		return fmt.Errorf("failed to save strategy %s: %w", cfg.Name, err)
	}
	score := float64(r.now().UnixMilli())
	if err := r.kv.SortedSetAdd(ctx, StrategyIndexKey, score, cfg.Name); err != nil {
		return fmt.Errorf("failed to index strategy %s: %w", cfg.Name, err)
	}
	return nil
}

func (r *strategyRepository) Get(ctx context.Context, name string) (*entities.StrategyConfig, error) {
	obj, err := r.kv.GetObject(ctx, StrategyObjectKey(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy %s: %w", name, err)
	}
	if len(obj) == 0 {
		return nil, repositories.ErrStrategyNotFound
	}

	cfg := decodeStrategy(obj)
	if cfg.Name == "" {
		cfg.Name = name
	}
	return cfg, nil
}

func (r *strategyRepository) List(ctx context.Context, includeDisabled bool) ([]*entities.StrategyConfig, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.StrategyConfig, 0, len(names))
	for _, name := range names {
		cfg, err := r.Get(ctx, name)
		if errors.Is(err, repositories.ErrStrategyNotFound) {
			r.logger.Warn("strategy indexed without object", slog.String("name", name))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !includeDisabled && !cfg.Enabled {
			continue
		}
		cfg.CallbackURL = urlutil.CallbackURL(r.baseURL, cfg.Name)
		out = append(out, cfg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *strategyRepository) Delete(ctx context.Context, name string) error {
	if err := r.kv.DeleteObject(ctx, StrategyObjectKey(name)); err != nil {
		return fmt.Errorf("failed to delete strategy %s: %w", name, err)
	}
	if err := r.kv.SortedSetRemove(ctx, StrategyIndexKey, name); err != nil {
		return fmt.Errorf("failed to unindex strategy %s: %w", name, err)
	}
	return nil
}

func (r *strategyRepository) Names(ctx context.Context) ([]string, error) {
	names, err := r.kv.SortedSetMembers(ctx, StrategyIndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategy names: %w", err)
	}
	return names, nil
}
