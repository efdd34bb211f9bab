package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/pkg/idgen"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

// UserRepository implements the host user service over PostgreSQL
type UserRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repositories.UserRepository {
	return &UserRepository{
		db:  db,
		log: slog.Default().With(slog.String("repo", "user")),
	}
}

// userRow represents a user as stored in the database
type userRow struct {
	ID             string         `db:"id"`
	Username       string         `db:"username"`
	Email          sql.NullString `db:"email"`
	EmailConfirmed bool           `db:"email_confirmed"`
	Fullname       string         `db:"fullname"`
	Picture        string         `db:"picture"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r *userRow) toEntity() *entities.User {
	return &entities.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email.String,
		EmailConfirmed: r.EmailConfirmed,
		Fullname:       r.Fullname,
		Picture:        r.Picture,
		CreatedAt:      r.CreatedAt,
		Fields:         make(map[string]string),
	}
}

// Create inserts a user, trying "name", "name 1", "name 2", ... until a free
// username is found
func (r *UserRepository) Create(ctx context.Context, username string) (uid string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "create", time.Since(start), err)
	}()

	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("failed to create user: username is required")
	}

	query := `INSERT INTO users (id, username, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`

	for attempt := 0; attempt < repositories.MaxUsernameAttempts; attempt++ {
		candidate := repositories.UsernameCandidate(username, attempt)
		id := idgen.GenerateID()

		res, execErr := r.db.ExecContext(ctx, query, id, candidate, time.Now())
		if execErr != nil {
			return "", fmt.Errorf("failed to create user: %w", execErr)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			r.log.Debug("created user", slog.String("uid", id), slog.Int("attempt", attempt))
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to create user: username %q exhausted", username)
}

// GetByID retrieves a user with its custom fields
func (r *UserRepository) GetByID(ctx context.Context, uid string) (_ *entities.User, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "get_by_id", time.Since(start), err)
	}()

	var row userRow
	query := `
		SELECT id, username, email, email_confirmed, fullname, picture, created_at
		FROM users
		WHERE id = $1`

	if err = r.db.GetContext(ctx, &row, query, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = repositories.ErrUserNotFound
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user := row.toEntity()

	var fields []struct {
		Field string `db:"field"`
		Value string `db:"value"`
	}
	if err = r.db.SelectContext(ctx, &fields, `SELECT field, value FROM user_fields WHERE user_id = $1`, uid); err != nil {
		return nil, fmt.Errorf("failed to get user fields: %w", err)
	}
	for _, f := range fields {
		user.Fields[f.Field] = f.Value
	}
	return user, nil
}

// GetUIDByEmail matches case-insensitively
func (r *UserRepository) GetUIDByEmail(ctx context.Context, email string) (uid string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "get_by_email", time.Since(start), err)
	}()

	email = strings.TrimSpace(email)
	if email == "" {
		return "", repositories.ErrUserNotFound
	}

	query := `SELECT id FROM users WHERE LOWER(email) = LOWER($1) ORDER BY created_at LIMIT 1`
	if err = r.db.GetContext(ctx, &uid, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = repositories.ErrUserNotFound
			return "", err
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}
	return uid, nil
}

func (r *UserRepository) GetUserField(ctx context.Context, uid, field string) (string, error) {
	values, err := r.GetUserFields(ctx, uid, []string{field})
	if err != nil {
		return "", err
	}
	return values[0], nil
}

func (r *UserRepository) GetUserFields(ctx context.Context, uid string, fields []string) ([]string, error) {
	user, err := r.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(fields))
	for i, f := range fields {
		switch f {
		case "username":
			out[i] = user.Username
		case "email":
			out[i] = user.Email
		case "fullname":
			out[i] = user.Fullname
		case "picture":
			out[i] = user.Picture
		default:
			out[i] = user.Fields[f]
		}
	}
	return out, nil
}

// SetUserField writes a standard column or a custom field. An empty value
// removes a custom field. Changing the email clears its confirmation.
func (r *UserRepository) SetUserField(ctx context.Context, uid, field, value string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "set_field", time.Since(start), err)
	}()

	var res sql.Result
	switch field {
	case "username":
		res, err = r.db.ExecContext(ctx, `UPDATE users SET username = $2 WHERE id = $1`, uid, value)
	case "email":
		res, err = r.db.ExecContext(ctx, `
			UPDATE users
			SET email_confirmed = email_confirmed AND LOWER(COALESCE(email, '')) = LOWER($2),
			    email = NULLIF($2, '')
			WHERE id = $1`, uid, value)
	case "fullname":
		res, err = r.db.ExecContext(ctx, `UPDATE users SET fullname = $2 WHERE id = $1`, uid, value)
	case "picture":
		res, err = r.db.ExecContext(ctx, `UPDATE users SET picture = $2 WHERE id = $1`, uid, value)
	default:
		return r.setCustomField(ctx, uid, field, value)
	}
	if err != nil {
		return fmt.Errorf("failed to set user field %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = repositories.ErrUserNotFound
		return err
	}
	return nil
}

func (r *UserRepository) setCustomField(ctx context.Context, uid, field, value string) error {
	if err := r.ensureExists(ctx, uid); err != nil {
		return err
	}

	if value == "" {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM user_fields WHERE user_id = $1 AND field = $2`, uid, field); err != nil {
			return fmt.Errorf("failed to delete user field %s: %w", field, err)
		}
		return nil
	}

	query := `INSERT INTO user_fields (user_id, field, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, field) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, uid, field, value); err != nil {
		return fmt.Errorf("failed to set user field %s: %w", field, err)
	}
	return nil
}

// UpdateProfile writes the allow-listed profile fields in one transaction
func (r *UserRepository) UpdateProfile(ctx context.Context, uid string, fields map[entities.ProfileField]string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "update_profile", time.Since(start), err)
	}()

	if err = repositories.ValidateProfileUpdate(fields); err != nil {
		return err
	}
	if err = r.ensureExists(ctx, uid); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for field, value := range fields {
		var query string
		switch field {
		case entities.ProfileFullname:
			query = `UPDATE users SET fullname = $2 WHERE id = $1`
		case entities.ProfilePicture:
			query = `UPDATE users SET picture = $2 WHERE id = $1`
		}
		if _, err = tx.ExecContext(ctx, query, uid, value); err != nil {
			return fmt.Errorf("failed to update %s: %w", field, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}
	return nil
}

func (r *UserRepository) ConfirmEmail(ctx context.Context, uid string) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("postgres_user", "confirm_email", time.Since(start), err)
	}()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET email_confirmed = TRUE WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = repositories.ErrUserNotFound
		return err
	}
	return nil
}

func (r *UserRepository) ensureExists(ctx context.Context, uid string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, uid); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return repositories.ErrUserNotFound
	}
	return nil
}
