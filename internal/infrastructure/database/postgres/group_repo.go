package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

// GroupRepository implements the host group service over PostgreSQL
type GroupRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewGroupRepository(db *sqlx.DB) repositories.GroupRepository {
	return &GroupRepository{
		db:  db,
		log: slog.Default().With(slog.String("repo", "group")),
	}
}

// Join creates missing groups and adds uid to each of them
func (r *GroupRepository) Join(ctx context.Context, groups []string, uid string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_group", "join", time.Since(start), err)
	}()

	if len(groups) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, group := range groups {
		if _, err = tx.ExecContext(ctx, `INSERT INTO groups (name) VALUES ($1) ON CONFLICT DO NOTHING`, group); err != nil {
			return fmt.Errorf("failed to create group %s: %w", group, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_name, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, group, uid); err != nil {
			return fmt.Errorf("failed to join group %s: %w", group, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group join: %w", err)
	}
	return nil
}

func (r *GroupRepository) Leave(ctx context.Context, groups []string, uid string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_group", "leave", time.Since(start), err)
	}()

	if len(groups) == 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE user_id = $1 AND group_name = ANY($2)`,
		uid, pq.Array(groups))
	if err != nil {
		return fmt.Errorf("failed to leave groups: %w", err)
	}
	return nil
}

func (r *GroupRepository) IsMember(ctx context.Context, group, uid string) (member bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_group", "is_member", time.Since(start), err)
	}()

	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_name = $1 AND user_id = $2)`
	if err = r.db.GetContext(ctx, &member, query, group, uid); err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return member, nil
}

// SettingsRepository stores admin settings blobs as JSONB
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) repositories.SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Load(ctx context.Context, key string, v any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_settings", "load", time.Since(start), err)
	}()

	var data []byte
	if err = r.db.GetContext(ctx, &data, `SELECT value FROM plugin_settings WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
			return nil
		}
		return fmt.Errorf("failed to load settings %s: %w", key, err)
	}
	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode settings %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) Save(ctx context.Context, key string, v any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_settings", "save", time.Since(start), err)
	}()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode settings %s: %w", key, err)
	}

	query := `INSERT INTO plugin_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err = r.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to save settings %s: %w", key, err)
	}
	return nil
}
