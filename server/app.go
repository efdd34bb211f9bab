package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devilmonastery/multioauth/internal/config"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/infrastructure/database/postgres"
	"github.com/devilmonastery/multioauth/internal/infrastructure/kvstore"
	"github.com/devilmonastery/multioauth/internal/infrastructure/memory"
	"github.com/devilmonastery/multioauth/internal/infrastructure/redis"
	"github.com/devilmonastery/multioauth/internal/pkg/idgen"
	"github.com/devilmonastery/multioauth/migrations"
)

// store is a key/value backend the process owns
type store interface {
	repositories.KeyValueStore
	Ping(ctx context.Context) error
	Close() error
}

// backends are the storage collaborators shared by serve and the admin subcommands
type backends struct {
	cfg        *config.Config
	kv         store
	pg         *postgres.Connection
	strategies repositories.StrategyRepository
	links      repositories.LinkRepository
	users      repositories.UserRepository
	groups     repositories.GroupRepository
	settings   repositories.SettingsRepository
}

// openBackends loads configuration and opens the configured store and host database
func openBackends(ctx context.Context, configPath string, forceVersion int) (*backends, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := idgen.Initialize(cfg.Server.NodeID); err != nil {
		return nil, fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	b := &backends{cfg: cfg}
	if err := b.openStore(ctx); err != nil {
		return nil, err
	}
	if err := b.openHost(ctx, forceVersion); err != nil {
		b.Close()
		return nil, err
	}

	b.strategies = kvstore.NewStrategyRepository(b.kv, cfg.Server.BaseURL)
	b.links = kvstore.NewLinkRepository(b.kv)
	return b, nil
}

func (b *backends) openStore(ctx context.Context) error {
	logger := slog.Default().With(slog.String("component", "store"))

	switch b.cfg.Store.Driver {
	case "memory":
		logger.Warn("using in-memory store, strategies and links are lost on exit")
		b.kv = memory.NewStore()
	default:
		rs := redis.New(redis.Options{
			Addr:      b.cfg.Store.Redis.Addr,
			Password:  b.cfg.Store.Redis.Password,
			DB:        b.cfg.Store.Redis.DB,
			KeyPrefix: b.cfg.Store.KeyPrefix,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", b.cfg.Store.Redis.Addr, err)
		}
		logger.Info("connected to redis", slog.String("addr", b.cfg.Store.Redis.Addr))
		b.kv = rs
	}
	return nil
}

// errMigrationForced stops startup after --force-migration
var errMigrationForced = errors.New("migration version forced")

func (b *backends) openHost(ctx context.Context, forceVersion int) error {
	logger := slog.Default().With(slog.String("component", "host"))

	if b.cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory host users and groups")
		b.users = memory.NewUserRepository()
		b.groups = memory.NewGroupRepository()
		b.settings = memory.NewSettingsRepository()
		return nil
	}

	pg := b.cfg.Database.Postgres
	logger.Info("connecting to PostgreSQL",
		slog.String("user", pg.User),
		slog.String("host", pg.Host),
		slog.String("database", pg.Database))

	conn, err := postgres.Connect(ctx, pg.ConnectionString(), 10)
	if err != nil {
		return err
	}
	b.pg = conn

	if forceVersion >= 0 {
		logger.Info("force setting migration version", slog.Int("version", forceVersion))
		if err := conn.ForceMigrationVersion(migrations.FS, forceVersion); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
		return errMigrationForced
	}
	if err := conn.RunMigrations(migrations.FS); err != nil {
		return fmt.Errorf("failed to run PostgreSQL migrations: %w", err)
	}

	b.users = postgres.NewUserRepository(conn.DB)
	b.groups = postgres.NewGroupRepository(conn.DB)
	b.settings = postgres.NewSettingsRepository(conn.DB)
	return nil
}

// Ping checks every backend is reachable
func (b *backends) Ping(ctx context.Context) error {
	if err := b.kv.Ping(ctx); err != nil {
		return err
	}
	if b.pg != nil {
		return b.pg.Ping(ctx)
	}
	return nil
}

func (b *backends) Close() {
	if b.kv != nil {
		_ = b.kv.Close()
	}
	if b.pg != nil {
		_ = b.pg.Close()
	}
}
