package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/rolo/internal/models"
)

var errNoSession = errors.New("session not found")

// Store keeps live sessions by id.
type Store interface {
	Put(ctx context.Context, id string, s models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

type memEntry struct {
	s       models.Session
	expires time.Time
}

type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryStore) Put(ctx context.Context, id string, s models.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[id] = memEntry{s: s, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.m[id]
	if !ok {
		return models.Session{}, errNoSession
	}
	if m.now().After(e.expires) {
		delete(m.m, id)
		return models.Session{}, errNoSession
	}
	return e.s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, id)
	return nil
}

// RedisStore keeps sessions as JSON strings under session:<id> with a TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Put(ctx context.Context, id string, s models.Session, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(id), b, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (models.Session, error) {
	b, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, errNoSession
	}
	if err != nil {
		return models.Session{}, err
	}
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string { return "session:" + id }
