package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/pkg/idgen"
)

// UserRepository keeps host users in memory
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User
	names map[string]string // lowercased username -> uid
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*entities.User),
		names: make(map[string]string),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("failed to create user: username is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < repositories.MaxUsernameAttempts; attempt++ {
		candidate := repositories.UsernameCandidate(username, attempt)
		if _, taken := r.names[strings.ToLower(candidate)]; taken {
			continue
		}

		uid := idgen.GenerateID()
		r.users[uid] = &entities.User{
			ID:        uid,
			Username:  candidate,
			CreatedAt: time.Now(),
			Fields:    make(map[string]string),
		}
		r.names[strings.ToLower(candidate)] = uid
		return uid, nil
	}
	return "", fmt.Errorf("failed to create user: username %q exhausted", username)
}

func (r *UserRepository) GetByID(ctx context.Context, uid string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[uid]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	cp.Fields = make(map[string]string, len(u.Fields))
	for k, v := range u.Fields {
		cp.Fields[k] = v
	}
	return &cp, nil
}

func (r *UserRepository) GetUIDByEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", repositories.ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for uid, u := range r.users {
		if strings.ToLower(u.Email) == email {
			return uid, nil
		}
	}
	return "", repositories.ErrUserNotFound
}

func (r *UserRepository) GetUserField(ctx context.Context, uid, field string) (string, error) {
	values, err := r.GetUserFields(ctx, uid, []string{field})
	if err != nil {
		return "", err
	}
	return values[0], nil
}

func (r *UserRepository) GetUserFields(ctx context.Context, uid string, fields []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[uid]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}

	out := make([]string, len(fields))
	for i, f := range fields {
		switch f {
		case "username":
			out[i] = u.Username
		case "email":
			out[i] = u.Email
		case "fullname":
			out[i] = u.Fullname
		case "picture":
			out[i] = u.Picture
		default:
			out[i] = u.Fields[f]
		}
	}
	return out, nil
}

func (r *UserRepository) SetUserField(ctx context.Context, uid, field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return repositories.ErrUserNotFound
	}

	switch field {
	case "username":
		delete(r.names, strings.ToLower(u.Username))
		u.Username = value
		r.names[strings.ToLower(value)] = uid
	case "email":
		if !strings.EqualFold(u.Email, value) {
			u.EmailConfirmed = false
		}
		u.Email = value
	case "fullname":
		u.Fullname = value
	case "picture":
		u.Picture = value
	default:
		if value == "" {
			delete(u.Fields, field)
		} else {
			u.Fields[field] = value
		}
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, uid string, fields map[entities.ProfileField]string) error {
	if err := repositories.ValidateProfileUpdate(fields); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return repositories.ErrUserNotFound
	}
	for field, value := range fields {
		switch field {
		case entities.ProfileFullname:
			u.Fullname = value
		case entities.ProfilePicture:
			u.Picture = value
		}
	}
	return nil
}

func (r *UserRepository) ConfirmEmail(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.EmailConfirmed = true
	return nil
}

// Count returns the number of users, for tests
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
