package access

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keys grants per browser session in Redis. Entries
// expire with the session TTL, so a grant never outlives the session by
// more than one TTL window.
type RedisSessionStore struct {
	rdb       *redis.Client
	sessionID string
	ttl       time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, sessionID string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, sessionID: sessionID, ttl: ttl}
}

func (s *RedisSessionStore) key(k string) string {
	return "sess:" + s.sessionID + ":" + k
}

func (s *RedisSessionStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

// MemorySessionStore is an in-process SessionStore used in tests and as a
// fallback when no Redis client is available.
type MemorySessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

func (s *MemorySessionStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok, nil
}

func (s *MemorySessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// MemorySessionRegistry hands out one MemorySessionStore per session ID so
// that grants survive across requests of the same browser session when
// running without Redis. Entries never expire; the registry is meant for
// development setups only.
type MemorySessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*MemorySessionStore
}

func NewMemorySessionRegistry() *MemorySessionRegistry {
	return &MemorySessionRegistry{sessions: make(map[string]*MemorySessionStore)}
}

func (r *MemorySessionRegistry) Session(sessionID string) *MemorySessionStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = NewMemorySessionStore()
		r.sessions[sessionID] = s
	}
	return s
}
