package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore persists booking state as JSON under booking:<userID>.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func (r *RedisStateStore) Load(ctx context.Context, userID string) (State, error) {
	b, err := r.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

func (r *RedisStateStore) Save(ctx context.Context, userID string, s State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, stateKey(userID), b, r.ttl).Err()
}

func (r *RedisStateStore) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, stateKey(userID)).Err()
}

func stateKey(userID string) string { return "booking:" + userID }
