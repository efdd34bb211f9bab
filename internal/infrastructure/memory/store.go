// Package memory holds in-process implementations of the storage contracts,
// used by the dev server and as test fakes.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/devilmonastery/multioauth/internal/domain/repositories"
)

// Store is a mutex-guarded KeyValueStore
type Store struct {
	mu      sync.RWMutex
	objects map[string]map[string]string
	zsets   map[string]map[string]float64
}

// NewStore creates an empty in-memory key/value store
func NewStore() *Store {
	return &Store{
		objects: make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
	}
}

var _ repositories.KeyValueStore = (*Store)(nil)

func (s *Store) GetObject(ctx context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.objects[key]))
	for k, v := range s.objects[key] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetObject(ctx context.Context, key string, fields map[string]string) error {
	obj := make(map[string]string, len(fields))
	for k, v := range fields {
		obj[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = obj
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Store) GetObjectField(ctx context.Context, key, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.objects[key][field]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetObjectField(ctx context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		obj = make(map[string]string)
		s.objects[key] = obj
	}
	obj[field] = value
	return nil
}

func (s *Store) DeleteObjectField(ctx context.Context, key, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil
	}
	delete(obj, field)
	if len(obj) == 0 {
		delete(s.objects, key)
	}
	return nil
}

func (s *Store) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.zsets[key]
	if !ok {
		set = make(map[string]float64)
		s.zsets[key] = set
	}
	set[member] = score
	return nil
}

func (s *Store) SortedSetRemove(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.zsets[key]
	if !ok {
		return nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.zsets, key)
	}
	return nil
}

func (s *Store) SortedSetMembers(ctx context.Context, key string) ([]string, error) {
	return s.SortedSetRange(ctx, key, 0, -1)
}

// SortedSetRange orders by score, then member, like redis ZRANGE
func (s *Store) SortedSetRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	set := s.zsets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := set[members[i]], set[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})
	s.mu.RUnlock()

	n := int64(len(members))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []string{}, nil
	}
	return members[start : stop+1], nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
