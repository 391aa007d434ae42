// Package redis keeps ledger keys in a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wallet/internal/storage"
)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "wallet:" stores "wallet:expenses".
	Prefix string
}

type Store struct {
	rdb    *redis.Client
	prefix string
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Pinger = (*Store)(nil)
	_ storage.Locker = (*Store)(nil)
)

const (
	lockKey   = "lock"
	lockTTL   = 10 * time.Second
	lockRetry = 25 * time.Millisecond
)

// releaseLock deletes the lock only while it still carries our token, so
// a holder whose lease expired cannot release someone else's lock.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Store{rdb: rdb, prefix: opts.Prefix}, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	// No expiry: the ledger lives until explicitly cleared.
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Lock takes a leased lock key with SET NX. The lease bounds how long a
// crashed holder can block others.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	key := s.key(lockKey)
	token := uuid.NewString()
	for {
		ok, err := s.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis lock: %w", ctx.Err())
		case <-time.After(lockRetry):
		}
	}
	return func() error {
		if err := releaseLock.Run(context.Background(), s.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock: %w", err)
		}
		return nil
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
