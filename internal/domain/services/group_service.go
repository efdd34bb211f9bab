package services

import (
	"context"
	"fmt"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// GroupSynchronizer maps asserted roles onto local group membership
type GroupSynchronizer struct {
	groups   repositories.GroupRepository
	settings repositories.SettingsRepository
}

func NewGroupSynchronizer(groups repositories.GroupRepository, settings repositories.SettingsRepository) *GroupSynchronizer {
	return &GroupSynchronizer{groups: groups, settings: settings}
}

// Associations loads the admin-configured role to group pairs
func (s *GroupSynchronizer) Associations(ctx context.Context) ([]entities.RoleGroupAssociation, error) {
	var settings entities.AssociationSettings
	if err := s.settings.Load(ctx, entities.SettingsKey, &settings); err != nil {
		return nil, fmt.Errorf("failed to load associations: %w", err)
	}
	return settings.Associations(), nil
}

// SaveAssociations replaces the association list
func (s *GroupSynchronizer) SaveAssociations(ctx context.Context, associations []entities.RoleGroupAssociation) error {
	// Round trip through the zip to drop blank pairs
	raw := entities.NewAssociationSettings(associations)
	clean := entities.NewAssociationSettings(raw.Associations())
	if err := s.settings.Save(ctx, entities.SettingsKey, clean); err != nil {
		return fmt.Errorf("failed to save associations: %w", err)
	}
	return nil
}

// Sync loads the associations and applies them to uid
func (s *GroupSynchronizer) Sync(ctx context.Context, uid string, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	associations, err := s.Associations(ctx)
	if err != nil {
		return err
	}
	return s.AssignGroups(ctx, uid, roles, associations)
}

// AssignGroups joins the groups of asserted roles and leaves the groups of every
// other associated role. Full membership is recomputed on each call, so a group
// joined by hand is left once its role is no longer asserted. No-op without roles.
func (s *GroupSynchronizer) AssignGroups(ctx context.Context, uid string, roles []string, associations []entities.RoleGroupAssociation) error {
	if len(roles) == 0 || len(associations) == 0 {
		return nil
	}

	asserted := make(map[string]bool, len(roles))
	for _, r := range roles {
		asserted[r] = true
	}

	toJoin, toLeave := partition(associations, asserted)

	if len(toLeave) > 0 {
		if err := s.groups.Leave(ctx, toLeave, uid); err != nil {
			return fmt.Errorf("failed to leave groups: %w", err)
		}
	}
	if len(toJoin) > 0 {
		if err := s.groups.Join(ctx, toJoin, uid); err != nil {
			return fmt.Errorf("failed to join groups: %w", err)
		}
	}
	return nil
}

// partition splits associated groups by role assertion. A group reached through
// any asserted role is joined and never left.
func partition(associations []entities.RoleGroupAssociation, asserted map[string]bool) (toJoin, toLeave []string) {
	join := make(map[string]bool)
	for _, a := range associations {
		if asserted[a.Role] && !join[a.Group] {
			join[a.Group] = true
			toJoin = append(toJoin, a.Group)
		}
	}

	leave := make(map[string]bool)
	for _, a := range associations {
		if !join[a.Group] && !leave[a.Group] {
			leave[a.Group] = true
			toLeave = append(toLeave, a.Group)
		}
	}
	return toJoin, toLeave
}
