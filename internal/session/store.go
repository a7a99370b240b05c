package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/railsahayak/internal/models"
)

// KeyPrefix namespaces the fallback profile copies.
const KeyPrefix = "railSahayak_demo_user:"

// ProfileStore holds the fallback copy of a signed-in profile.
type ProfileStore interface {
	Put(ctx context.Context, key string, p models.UserProfile, ttl time.Duration) error
	Get(ctx context.Context, key string) (models.UserProfile, bool, error)
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	profile models.UserProfile
	expires time.Time // zero means no expiry
}

type MemoryProfileStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	Now     func() time.Time
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{entries: make(map[string]memoryEntry), Now: time.Now}
}

func (m *MemoryProfileStore) Put(_ context.Context, key string, p models.UserProfile, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{profile: p}
	if ttl > 0 {
		e.expires = m.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryProfileStore) Get(_ context.Context, key string) (models.UserProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return models.UserProfile{}, false, nil
	}
	if !e.expires.IsZero() && m.Now().After(e.expires) {
		delete(m.entries, key)
		return models.UserProfile{}, false, nil
	}
	return e.profile, true, nil
}

func (m *MemoryProfileStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// KV is the small subset of redis operations the profile store needs.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error) // redis.Nil when absent
	Del(ctx context.Context, key string) error
}

type redisAdapter struct{ c *redis.Client }

func NewRedisKV(c *redis.Client) KV { return &redisAdapter{c: c} }

func (r *redisAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *redisAdapter) Get(ctx context.Context, key string) (string, error) {
	return r.c.Get(ctx, key).Result()
}

func (r *redisAdapter) Del(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// RedisProfileStore keeps profiles as JSON strings so any replica can
// restore a session.
type RedisProfileStore struct {
	kv KV
}

func NewRedisProfileStore(kv KV) *RedisProfileStore { return &RedisProfileStore{kv: kv} }

func (r *RedisProfileStore) Put(ctx context.Context, key string, p models.UserProfile, ttl time.Duration) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, string(b), ttl)
}

func (r *RedisProfileStore) Get(ctx context.Context, key string) (models.UserProfile, bool, error) {
	v, err := r.kv.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return models.UserProfile{}, false, nil
	}
	if err != nil {
		return models.UserProfile{}, false, err
	}
	var p models.UserProfile
	if err := json.Unmarshal([]byte(v), &p); err != nil {
		return models.UserProfile{}, false, err
	}
	return p, true, nil
}

func (r *RedisProfileStore) Delete(ctx context.Context, key string) error {
	return r.kv.Del(ctx, key)
}
