// Package redis implements the key/value store contract on redis hashes and sorted sets.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/devilmonastery/multioauth/internal/domain/repositories"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

// Options configures the redis connection
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store maps objects onto hashes and ordered indexes onto sorted sets
type Store struct {
	c      *rdb.Client
	prefix string
}

// New creates a redis-backed store; it does not dial until first use
func New(opts Options) *Store {
	return &Store{
		c: rdb.NewClient(&rdb.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.KeyPrefix,
	}
}

var _ repositories.KeyValueStore = (*Store)(nil)

func (s *Store) key(k string) string {
	return s.prefix + k
}

func observe(operation string, start time.Time, err error) {
	metrics.RecordStoreOperation("redis", operation, time.Since(start), err)
}

func (s *Store) GetObject(ctx context.Context, key string) (_ map[string]string, err error) {
	defer func(start time.Time) { observe("hgetall", start, err) }(time.Now())

	obj, err := s.c.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return obj, nil
}

// SetObject deletes and rewrites the hash in one MULTI block so readers never see a merge
func (s *Store) SetObject(ctx context.Context, key string, fields map[string]string) (err error) {
	defer func(start time.Time) { observe("hset", start, err) }(time.Now())

	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	k := s.key(key)
	_, err = s.c.TxPipelined(ctx, func(pipe rdb.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(values) > 0 {
			pipe.HSet(ctx, k, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { observe("del", start, err) }(time.Now())

	if err = s.c.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetObjectField(ctx context.Context, key, field string) (_ string, err error) {
	defer func(start time.Time) { observe("hget", start, err) }(time.Now())

	v, err := s.c.HGet(ctx, s.key(key), field).Result()
	if errors.Is(err, rdb.Nil) {
		return "", repositories.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read field %s of %s: %w", field, key, err)
	}
	return v, nil
}

func (s *Store) SetObjectField(ctx context.Context, key, field, value string) (err error) {
	defer func(start time.Time) { observe("hset", start, err) }(time.Now())

	if err = s.c.HSet(ctx, s.key(key), field, value).Err(); err != nil {
		return fmt.Errorf("failed to write field %s of %s: %w", field, key, err)
	}
	return nil
}

func (s *Store) DeleteObjectField(ctx context.Context, key, field string) (err error) {
	defer func(start time.Time) { observe("hdel", start, err) }(time.Now())

	if err = s.c.HDel(ctx, s.key(key), field).Err(); err != nil {
		return fmt.Errorf("failed to delete field %s of %s: %w", field, key, err)
	}
	return nil
}

func (s *Store) SortedSetAdd(ctx context.Context, key string, score float64, member string) (err error) {
	defer func(start time.Time) { observe("zadd", start, err) }(time.Now())

	if err = s.c.ZAdd(ctx, s.key(key), rdb.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", member, key, err)
	}
	return nil
}

func (s *Store) SortedSetRemove(ctx context.Context, key, member string) (err error) {
	defer func(start time.Time) { observe("zrem", start, err) }(time.Now())

	if err = s.c.ZRem(ctx, s.key(key), member).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from %s: %w", member, key, err)
	}
	return nil
}

func (s *Store) SortedSetMembers(ctx context.Context, key string) ([]string, error) {
	return s.SortedSetRange(ctx, key, 0, -1)
}

func (s *Store) SortedSetRange(ctx context.Context, key string, start, stop int64) (_ []string, err error) {
	defer func(t time.Time) { observe("zrange", t, err) }(time.Now())

	members, err := s.c.ZRange(ctx, s.key(key), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range %s: %w", key, err)
	}
	return members, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.c.Close()
}
