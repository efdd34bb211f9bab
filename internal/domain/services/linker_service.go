package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// LinkOutcome says how a login was resolved to a local user
type LinkOutcome string

const (
	LinkExisting LinkOutcome = "existing"
	LinkEmail    LinkOutcome = "email"
	LinkCreated  LinkOutcome = "created"
)

// LinkResult is returned by IdentityLinker.Login
type LinkResult struct {
	UID     string      `json:"uid"`
	Outcome LinkOutcome `json:"-"`
}

// IdentityLinker resolves canonical identities to local users
type IdentityLinker struct {
	users  repositories.UserRepository
	links  repositories.LinkRepository
	logger *slog.Logger
}

func NewIdentityLinker(users repositories.UserRepository, links repositories.LinkRepository) *IdentityLinker {
	return &IdentityLinker{
		users:  users,
		links:  links,
		logger: slog.Default().With(slog.String("service", "linker")),
	}
}

// Login returns the local user for id: the linked user if one exists, else a user
// owning the same trusted verified email, else a newly created user. Links are
// written only once a uid is known.
func (s *IdentityLinker) Login(ctx context.Context, cfg *entities.StrategyConfig, id *entities.CanonicalIdentity) (*LinkResult, error) {
	uid, err := s.links.GetUID(ctx, id.Provider, id.SubjectID)
	if err == nil {
		return &LinkResult{UID: uid, Outcome: LinkExisting}, nil
	}
	if !errors.Is(err, repositories.ErrLinkNotFound) {
		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	trusted := cfg.TrustEmailVerified && id.EmailVerified && id.Email != ""

	if trusted {
		uid, err = s.users.GetUIDByEmail(ctx, id.Email)
		switch {
		case err == nil:
			if err := s.link(ctx, id, uid); err != nil {
				return nil, err
			}
			return &LinkResult{UID: uid, Outcome: LinkEmail}, nil
		case !errors.Is(err, repositories.ErrUserNotFound):
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}

	uid, err = s.users.Create(ctx, id.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if id.Email != "" {
		if err := s.users.SetUserField(ctx, uid, "email", id.Email); err != nil {
			return nil, fmt.Errorf("failed to set email: %w", err)
		}
		if trusted {
			if err := s.users.ConfirmEmail(ctx, uid); err != nil {
				return nil, fmt.Errorf("failed to confirm email: %w", err)
			}
		}
	}

	if err := s.link(ctx, id, uid); err != nil {
		return nil, err
	}
	return &LinkResult{UID: uid, Outcome: LinkCreated}, nil
}

// link writes the reverse field then the forward mapping. A previous subject of the
// same provider on this user is unlinked first so each user keeps one link per provider.
func (s *IdentityLinker) link(ctx context.Context, id *entities.CanonicalIdentity, uid string) error {
	field := entities.LinkField(id.Provider)

	previous, err := s.users.GetUserField(ctx, uid, field)
	if err != nil {
		return fmt.Errorf("failed to read existing link: %w", err)
	}
	if previous != "" && previous != id.SubjectID {
		if err := s.links.DeleteLink(ctx, id.Provider, previous); err != nil {
			return fmt.Errorf("failed to replace existing link: %w", err)
		}
		s.logger.Info("replaced provider link", slog.String("provider", id.Provider), slog.String("uid", uid))
	}

	if err := s.users.SetUserField(ctx, uid, field, id.SubjectID); err != nil {
		return fmt.Errorf("failed to write reverse link: %w", err)
	}
	if err := s.links.SetLink(ctx, entities.AccountLink{Provider: id.Provider, SubjectID: id.SubjectID, UserID: uid}); err != nil {
		return fmt.Errorf("failed to write forward link: %w", err)
	}
	return nil
}
