package repositories

import (
	"context"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
)

// UserRepository is the host user service this plugin calls into
type UserRepository interface {
	// Create creates a local user; username collisions are resolved by the host
	Create(ctx context.Context, username string) (string, error)

	// GetByID retrieves a user with its custom fields
	GetByID(ctx context.Context, uid string) (*entities.User, error)

	// GetUIDByEmail returns the uid owning email, or ErrUserNotFound
	GetUIDByEmail(ctx context.Context, email string) (string, error)

	// GetUserField returns a field value, empty when unset
	GetUserField(ctx context.Context, uid, field string) (string, error)

	// GetUserFields returns the values of fields in order, empty strings when unset
	GetUserFields(ctx context.Context, uid string, fields []string) ([]string, error)

	// SetUserField sets a field on the user record
	SetUserField(ctx context.Context, uid, field, value string) error

	// UpdateProfile overwrites profile fields subject to the host's allow-list and validation
	UpdateProfile(ctx context.Context, uid string, fields map[entities.ProfileField]string) error

	// ConfirmEmail marks the user's email as confirmed
	ConfirmEmail(ctx context.Context, uid string) error
}

// GroupRepository is the host group service
type GroupRepository interface {
	// Join adds uid to each named group, creating groups that do not exist
	Join(ctx context.Context, groups []string, uid string) error

	// Leave removes uid from each named group
	Leave(ctx context.Context, groups []string, uid string) error

	// IsMember reports whether uid belongs to the group
	IsMember(ctx context.Context, group, uid string) (bool, error)
}

// SettingsRepository is the host settings store holding admin-configured blobs
type SettingsRepository interface {
	// Load decodes the blob stored under key into v; a missing key leaves v untouched
	Load(ctx context.Context, key string, v any) error

	// Save encodes v and stores it under key
	Save(ctx context.Context, key string, v any) error
}
