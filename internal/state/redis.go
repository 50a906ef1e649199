package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Minute

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// RedisStore хранит состояние диалога в Redis с TTL. Одновременная запись
// одного ключа не предполагается: обновления от одного пользователя
// обрабатываются по очереди.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (*State, error) {
	data, err := r.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state failed: %w", err)
	}
	return &st, nil
}

func (r *RedisStore) Set(ctx context.Context, userID int64, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state failed: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) SetStage(ctx context.Context, userID int64, stage Stage) error {
	st, err := r.Get(ctx, userID)
	if errors.Is(err, ErrStateNotFound) {
		st = &State{}
	} else if err != nil {
		return err
	}
	st.Stage = stage
	return r.Set(ctx, userID, st)
}

func (r *RedisStore) SetField(ctx context.Context, userID int64, key, value string) error {
	st, err := r.Get(ctx, userID)
	if errors.Is(err, ErrStateNotFound) {
		st = &State{}
	} else if err != nil {
		return err
	}
	if st.Scratch == nil {
		st.Scratch = map[string]string{}
	}
	st.Scratch[key] = value
	return r.Set(ctx, userID, st)
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func stateKey(userID int64) string {
	return fmt.Sprintf("dialog:state:%d", userID)
}
