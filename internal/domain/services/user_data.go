package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// UserDataService manages the provider links held on user records
type UserDataService struct {
	strategies repositories.StrategyRepository
	users      repositories.UserRepository
	links      repositories.LinkRepository
}

func NewUserDataService(strategies repositories.StrategyRepository, users repositories.UserRepository, links repositories.LinkRepository) *UserDataService {
	return &UserDataService{strategies: strategies, users: users, links: links}
}

// LinkFields returns the user field name of every stored strategy
func (s *UserDataService) LinkFields(ctx context.Context) ([]string, error) {
	names, err := s.strategies.Names(ctx)
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(names))
	for i, name := range names {
		fields[i] = entities.LinkField(name)
	}
	return fields, nil
}

// Links returns provider -> subject id for every link on the user
func (s *UserDataService) Links(ctx context.Context, uid string) (map[string]string, error) {
	names, err := s.strategies.Names(ctx)
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(names))
	for i, name := range names {
		fields[i] = entities.LinkField(name)
	}

	values, err := s.users.GetUserFields(ctx, uid, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to read link fields: %w", err)
	}

	out := make(map[string]string)
	for i, v := range values {
		if v != "" && i < len(names) {
			out[names[i]] = v
		}
	}
	return out, nil
}

// DeleteUserData removes every forward link pointing at uid and clears the
// reverse fields. It returns the number of links removed.
func (s *UserDataService) DeleteUserData(ctx context.Context, uid string) (int, error) {
	links, err := s.Links(ctx, uid)
	if err != nil {
		return 0, err
	}

	for provider, subjectID := range links {
		if err := s.links.DeleteLink(ctx, provider, subjectID); err != nil {
			return 0, err
		}
		if err := s.users.SetUserField(ctx, uid, entities.LinkField(provider), ""); err != nil {
			return 0, fmt.Errorf("failed to clear %s link field: %w", provider, err)
		}
	}
	return len(links), nil
}

// LookupUID returns the local user linked to a provider-scoped external id
func (s *UserDataService) LookupUID(ctx context.Context, provider, subjectID string) (string, error) {
	uid, err := s.links.GetUID(ctx, Slug(provider), subjectID)
	if errors.Is(err, repositories.ErrLinkNotFound) {
		return "", repositories.ErrUserNotFound
	}
	return uid, err
}
