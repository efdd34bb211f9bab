package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/infrastructure/memory"
)

func newTestRepo(t *testing.T) (*strategyRepository, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	repo := NewStrategyRepository(kv, "https://forum.example.com/").(*strategyRepository)
	tick := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	return repo, kv
}

func sampleStrategy(name string, enabled bool) *entities.StrategyConfig {
	return &entities.StrategyConfig{
		Name:               name,
		AuthURL:            "https://idp.example.com/authorize",
		TokenURL:           "https://idp.example.com/token",
		UserRoute:          "https://idp.example.com/userinfo",
		ClientID:           "client",
		Secret:             "secret",
		Enabled:            enabled,
		Scope:              "openid email",
		IconURL:            "data:image/png;base64,AAA'B",
		TrustEmailVerified: true,
		SyncPicture:        true,
	}
}

func TestSaveThenGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepo(t)

	in := sampleStrategy("okta", true)
	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Get(ctx, "okta")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	obj, err := kv.GetObject(ctx, StrategyObjectKey("okta"))
	require.NoError(t, err)
	assert.Equal(t, "true", obj["enabled"])
	assert.Equal(t, "false", obj["usernameViaEmail"])
}

func TestSaveIsFullReplace(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, sampleStrategy("okta", true)))
	require.NoError(t, repo.Save(ctx, &entities.StrategyConfig{
		Name: "okta", AuthURL: "a", TokenURL: "t", ClientID: "c", Secret: "s",
	}))

	out, err := repo.Get(ctx, "okta")
	require.NoError(t, err)
	assert.Empty(t, out.IconURL)
	assert.Empty(t, out.Scope)
	assert.False(t, out.Enabled)
}

func TestGetReadsLegacyBooleans(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepo(t)

	require.NoError(t, kv.SetObject(ctx, StrategyObjectKey("legacy"), map[string]string{
		"authUrl":          "a",
		"enabled":          "on",
		"syncFullname":     "1",
		"usernameViaEmail": "off",
		"syncPicture":      "yes",
	}))

	out, err := repo.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", out.Name)
	assert.True(t, out.Enabled)
	assert.True(t, out.SyncFullname)
	assert.True(t, out.SyncPicture)
	assert.False(t, out.UsernameViaEmail)
}

func TestListFiltersAndSortsByName(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, sampleStrategy("zeta", true)))
	require.NoError(t, repo.Save(ctx, sampleStrategy("alpha", false)))
	require.NoError(t, repo.Save(ctx, sampleStrategy("mid", true)))

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{all[0].Name, all[1].Name, all[2].Name})
	assert.Equal(t, "https://forum.example.com/auth/alpha/callback", all[0].CallbackURL)

	enabled, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	for _, cfg := range enabled {
		assert.True(t, cfg.Enabled)
	}

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, sampleStrategy("okta", true)))
	require.NoError(t, repo.Delete(ctx, "okta"))
	require.NoError(t, repo.Delete(ctx, "okta"))

	_, err := repo.Get(ctx, "okta")
	assert.ErrorIs(t, err, repositories.ErrStrategyNotFound)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListSkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestRepo(t)

	require.NoError(t, kv.SortedSetAdd(ctx, StrategyIndexKey, 1, "ghost"))
	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLinkRepository(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	links := NewLinkRepository(kv)

	_, err := links.GetUID(ctx, "okta", "sub-1")
	assert.ErrorIs(t, err, repositories.ErrLinkNotFound)

	require.NoError(t, links.SetLink(ctx, entities.AccountLink{Provider: "okta", SubjectID: "sub-1", UserID: "42"}))
	uid, err := links.GetUID(ctx, "okta", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "42", uid)

	v, err := kv.GetObjectField(ctx, "oktaId:uid", "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	require.NoError(t, links.DeleteLink(ctx, "okta", "sub-1"))
	require.NoError(t, links.DeleteLink(ctx, "okta", "sub-1"))
	_, err = links.GetUID(ctx, "okta", "sub-1")
	assert.ErrorIs(t, err, repositories.ErrLinkNotFound)
}
