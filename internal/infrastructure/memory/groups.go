package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// GroupRepository keeps group membership in memory
type GroupRepository struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{members: make(map[string]map[string]struct{})}
}

var _ repositories.GroupRepository = (*GroupRepository)(nil)

func (r *GroupRepository) Join(ctx context.Context, groups []string, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range groups {
		set, ok := r.members[g]
		if !ok {
			set = make(map[string]struct{})
			r.members[g] = set
		}
		set[uid] = struct{}{}
	}
	return nil
}

func (r *GroupRepository) Leave(ctx context.Context, groups []string, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range groups {
		delete(r.members[g], uid)
	}
	return nil
}

func (r *GroupRepository) IsMember(ctx context.Context, group, uid string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[group][uid]
	return ok, nil
}

// SettingsRepository keeps settings blobs in memory as JSON
type SettingsRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{blobs: make(map[string][]byte)}
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Load(ctx context.Context, key string, v any) error {
	r.mu.RLock()
	data, ok := r.blobs[key]
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode settings %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode settings %s: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[key] = data
	return nil
}
