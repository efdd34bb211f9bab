package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/events"
	"github.com/devilmonastery/multioauth/internal/pkg/logger"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

// SessionHook tells the host a login succeeded for uid on the current request
type SessionHook func(ctx context.Context, uid string) error

// EventPublisher receives the login notification
type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// LoginService runs the steps after a provider returned a profile:
// normalize, validate, link, session, groups, profile, notify.
type LoginService struct {
	linker   *IdentityLinker
	groups   *GroupSynchronizer
	profiles *ProfileSynchronizer
	events   EventPublisher
	logger   *slog.Logger
}

func NewLoginService(linker *IdentityLinker, groups *GroupSynchronizer, profiles *ProfileSynchronizer, publisher EventPublisher) *LoginService {
	return &LoginService{
		linker:   linker,
		groups:   groups,
		profiles: profiles,
		events:   publisher,
		logger:   slog.Default().With(slog.String("service", "login")),
	}
}

// Complete resolves a raw profile to a local user and establishes the session.
// Nothing is written before the identity has been validated, and the session
// hook runs only once a uid exists. The event is published after the login
// has succeeded and cannot fail it.
func (s *LoginService) Complete(ctx context.Context, cfg entities.StrategyConfig, rawProfile []byte, hook SessionHook) (result *LinkResult, err error) {
	start := time.Now()
	defer func() {
		outcome := LoginFailureReason(err)
		metrics.RecordLogin(cfg.Name, outcome, time.Since(start))
		if err != nil {
			logger.WithProvider(s.logger, cfg.Name).Warn("login failed", slog.String("reason", outcome))
		}
	}()

	id, err := NormalizeProfile(&cfg, rawProfile)
	if err != nil {
		return nil, err
	}
	if err := ValidateIdentity(id); err != nil {
		return nil, err
	}

	result, err = s.linker.Login(ctx, &cfg, id)
	if err != nil {
		return nil, err
	}

	if hook != nil {
		if err := hook(ctx, result.UID); err != nil {
			return nil, err
		}
	}

	if err := s.groups.Sync(ctx, result.UID, id.Roles); err != nil {
		return nil, err
	}
	if err := s.profiles.Sync(ctx, &cfg, result.UID, id); err != nil {
		return nil, err
	}

	logger.WithUser(logger.WithProvider(s.logger, cfg.Name), result.UID).
		Info("login succeeded", slog.String("link", string(result.Outcome)))

	if s.events != nil {
		s.events.Publish(ctx, events.Event{
			Name:     events.LoginSucceeded,
			Provider: cfg.Name,
			UserID:   result.UID,
			Profile:  json.RawMessage(rawProfile),
		})
	}
	return result, nil
}
