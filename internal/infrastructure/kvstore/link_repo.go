package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// linkRepository keeps forward links in one object per provider: {provider}Id:uid
type linkRepository struct {
	kv repositories.KeyValueStore
}

func NewLinkRepository(kv repositories.KeyValueStore) repositories.LinkRepository {
	return &linkRepository{kv: kv}
}

func (r *linkRepository) GetUID(ctx context.Context, provider, subjectID string) (string, error) {
	uid, err := r.kv.GetObjectField(ctx, entities.LinkObjectKey(provider), subjectID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && uid == "") {
		return "", repositories.ErrLinkNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up %s link: %w", provider, err)
	}
	return uid, nil
}

func (r *linkRepository) SetLink(ctx context.Context, link entities.AccountLink) error {
	if err := r.kv.SetObjectField(ctx, entities.LinkObjectKey(link.Provider), link.SubjectID, link.UserID); err != nil {
		return fmt.Errorf("failed to write %s link: %w", link.Provider, err)
	}
	return nil
}

func (r *linkRepository) DeleteLink(ctx context.Context, provider, subjectID string) error {
	if err := r.kv.DeleteObjectField(ctx, entities.LinkObjectKey(provider), subjectID); err != nil {
		return fmt.Errorf("failed to delete %s link: %w", provider, err)
	}
	return nil
}
