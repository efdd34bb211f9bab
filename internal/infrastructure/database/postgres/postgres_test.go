package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/migrations"
)

func testConnection(t *testing.T) *Connection {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	conn, err := NewConnection(dsn)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.RunMigrations(migrations.FS))
	return conn
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestUserRepository(t *testing.T) {
	conn := testConnection(t)
	repo := NewUserRepository(conn.DB)
	ctx := context.Background()

	name := uniqueName("jdoe")
	first, err := repo.Create(ctx, name)
	require.NoError(t, err)
	second, err := repo.Create(ctx, name)
	require.NoError(t, err)

	u, err := repo.GetByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, name+" 1", u.Username)

	email := uniqueName("jdoe") + "@Example.com"
	require.NoError(t, repo.SetUserField(ctx, first, "email", email))
	require.NoError(t, repo.ConfirmEmail(ctx, first))
	uid, err := repo.GetUIDByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, first, uid)

	// same address in another case keeps the confirmation
	require.NoError(t, repo.SetUserField(ctx, first, "email", strings.ToLower(email)))
	u, err = repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.True(t, u.EmailConfirmed)

	require.NoError(t, repo.SetUserField(ctx, first, "oktaId", "abc"))
	v, err := repo.GetUserField(ctx, first, "oktaId")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	require.NoError(t, repo.SetUserField(ctx, first, "oktaId", ""))
	v, err = repo.GetUserField(ctx, first, "oktaId")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, repo.UpdateProfile(ctx, first, map[entities.ProfileField]string{
		entities.ProfileFullname: "Jane Doe",
		entities.ProfilePicture:  "https://cdn.example.com/a.png",
	}))
	u, err = repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Fullname)
	assert.ErrorIs(t, repo.UpdateProfile(ctx, first, map[entities.ProfileField]string{"email": "x"}), repositories.ErrFieldNotAllowed)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	assert.ErrorIs(t, repo.SetUserField(ctx, "missing", "oktaId", "abc"), repositories.ErrUserNotFound)
}

func TestGroupAndSettingsRepositories(t *testing.T) {
	conn := testConnection(t)
	users := NewUserRepository(conn.DB)
	groups := NewGroupRepository(conn.DB)
	settings := NewSettingsRepository(conn.DB)
	ctx := context.Background()

	uid, err := users.Create(ctx, uniqueName("member"))
	require.NoError(t, err)
	group := uniqueName("Staff")

	require.NoError(t, groups.Join(ctx, []string{group}, uid))
	require.NoError(t, groups.Join(ctx, []string{group}, uid))
	member, err := groups.IsMember(ctx, group, uid)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, groups.Leave(ctx, []string{group}, uid))
	member, err = groups.IsMember(ctx, group, uid)
	require.NoError(t, err)
	assert.False(t, member)

	key := uniqueName("settings")
	var loaded entities.AssociationSettings
	require.NoError(t, settings.Load(ctx, key, &loaded))
	assert.Empty(t, loaded.Roles)

	want := entities.AssociationSettings{Roles: []string{"admin"}, Groups: []string{"Admins"}}
	require.NoError(t, settings.Save(ctx, key, want))
	require.NoError(t, settings.Load(ctx, key, &loaded))
	assert.Equal(t, want, loaded)
}
