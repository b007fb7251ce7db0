package session

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Persisted keys, mirroring what the browser app kept in localStorage.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyRole     = "role"
	// KeyLegacyUserName is the display name written by older clients.
	KeyLegacyUserName = "user_name"
)

// KeyValue is the durable per-browser storage behind a Store. Replace swaps
// the whole record in one write so readers never see a mix of two sessions.
type KeyValue interface {
	Load(ctx context.Context, sid string) (map[string]string, error)
	Replace(ctx context.Context, sid string, fields map[string]string) error
	Clear(ctx context.Context, sid string) error
}

type MemoryKeyValue struct {
	cache *cache.Cache
}

func NewMemoryKeyValue(ttl time.Duration) *MemoryKeyValue {
	return &MemoryKeyValue{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (m *MemoryKeyValue) Load(_ context.Context, sid string) (map[string]string, error) {
	x, found := m.cache.Get(sid)
	if !found {
		return map[string]string{}, nil
	}
	return copyFields(x.(map[string]string)), nil
}

func (m *MemoryKeyValue) Replace(_ context.Context, sid string, fields map[string]string) error {
	m.cache.Set(sid, copyFields(fields), cache.DefaultExpiration)
	return nil
}

func (m *MemoryKeyValue) Clear(_ context.Context, sid string) error {
	m.cache.Delete(sid)
	return nil
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// RedisKeyValue stores one hash per browser so several web instances share
// sessions.
type RedisKeyValue struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisKeyValue(rdb *redis.Client, ttl time.Duration) *RedisKeyValue {
	return &RedisKeyValue{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "central:session:",
	}
}

func (r *RedisKeyValue) key(sid string) string {
	return r.prefix + sid
}

func (r *RedisKeyValue) Load(ctx context.Context, sid string) (map[string]string, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sid, err)
	}
	return fields, nil
}

func (r *RedisKeyValue) Replace(ctx context.Context, sid string, fields map[string]string) error {
	key := r.key(sid)
	values := copyFields(fields)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace session %s: %w", sid, err)
	}
	return nil
}

func (r *RedisKeyValue) Clear(ctx context.Context, sid string) error {
	if err := r.rdb.Del(ctx, r.key(sid)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sid, err)
	}
	return nil
}
