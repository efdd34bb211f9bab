package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// ProfileSynchronizer copies provider profile fields onto the local user when the
// strategy allows it
type ProfileSynchronizer struct {
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewProfileSynchronizer(users repositories.UserRepository) *ProfileSynchronizer {
	return &ProfileSynchronizer{
		users:  users,
		logger: slog.Default().With(slog.String("service", "profile_sync")),
	}
}

// Sync writes fullname and picture per the strategy's sync flags. A picture the
// host would reject is skipped rather than failing the login.
func (s *ProfileSynchronizer) Sync(ctx context.Context, cfg *entities.StrategyConfig, uid string, id *entities.CanonicalIdentity) error {
	fields := make(map[entities.ProfileField]string)

	if cfg.SyncFullname && id.Fullname != "" {
		fields[entities.ProfileFullname] = id.Fullname
	}
	if cfg.SyncPicture && id.Picture != "" {
		picture := map[entities.ProfileField]string{entities.ProfilePicture: id.Picture}
		if err := repositories.ValidateProfileUpdate(picture); err != nil {
			s.logger.Warn("skipping picture sync", slog.String("provider", cfg.Name), slog.String("error", err.Error()))
		} else {
			fields[entities.ProfilePicture] = id.Picture
		}
	}

	if len(fields) == 0 {
		return nil
	}
	if err := s.users.UpdateProfile(ctx, uid, fields); err != nil {
		return fmt.Errorf("failed to sync profile: %w", err)
	}
	return nil
}
