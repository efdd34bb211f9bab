package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/events"
	"github.com/devilmonastery/multioauth/internal/infrastructure/kvstore"
	"github.com/devilmonastery/multioauth/internal/infrastructure/memory"
)

type fixture struct {
	kv         *memory.Store
	users      *memory.UserRepository
	groups     *recordingGroups
	settings   *memory.SettingsRepository
	links      repositories.LinkRepository
	strategies repositories.StrategyRepository
	bus        *recordingBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := memory.NewStore()
	return &fixture{
		kv:         kv,
		users:      memory.NewUserRepository(),
		groups:     &recordingGroups{GroupRepository: memory.NewGroupRepository()},
		settings:   memory.NewSettingsRepository(),
		links:      kvstore.NewLinkRepository(kv),
		strategies: kvstore.NewStrategyRepository(kv, "https://forum.example.com"),
		bus:        &recordingBus{},
	}
}

func (f *fixture) linker() *IdentityLinker {
	return NewIdentityLinker(f.users, f.links)
}

func (f *fixture) loginService() *LoginService {
	return NewLoginService(
		f.linker(),
		NewGroupSynchronizer(f.groups, f.settings),
		NewProfileSynchronizer(f.users),
		f.bus,
	)
}

// recordingGroups records the order of group calls
type recordingGroups struct {
	*memory.GroupRepository
	mu    sync.Mutex
	calls []string
}

func (g *recordingGroups) Join(ctx context.Context, groups []string, uid string) error {
	g.mu.Lock()
	for _, name := range groups {
		g.calls = append(g.calls, "join:"+name)
	}
	g.mu.Unlock()
	return g.GroupRepository.Join(ctx, groups, uid)
}

func (g *recordingGroups) Leave(ctx context.Context, groups []string, uid string) error {
	g.mu.Lock()
	for _, name := range groups {
		g.calls = append(g.calls, "leave:"+name)
	}
	g.mu.Unlock()
	return g.GroupRepository.Leave(ctx, groups, uid)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// failingUsers fails user creation
type failingUsers struct {
	*memory.UserRepository
}

var errHostDown = errors.New("host user service down")

func (failingUsers) Create(ctx context.Context, username string) (string, error) {
	return "", errHostDown
}

type fakeReloader struct {
	calls int
	err   error
}

func (r *fakeReloader) Reload(ctx context.Context) error {
	r.calls++
	return r.err
}
