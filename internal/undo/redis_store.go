package undo

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments where several
// engine instances must share one undo namespace. It uses a simple key
// structure:
//
//	<prefix>undo:<token> => gob-encoded []string, with a Redis TTL
//
// Expiry is delegated to Redis, so Collect is a no-op; Pop relies on
// GETDEL for the atomic remove-and-return.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "ritmo:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ritmo:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + "undo:" + token
}

func (r *RedisStore) Create(ctx context.Context, ids []string, ttl time.Duration) (string, time.Time, error) {
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, err
	}

	data, err := encodeIDs(ids)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(ttl)
	if err := r.client.Set(ctx, r.key(token), data, ttl).Err(); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (r *RedisStore) Pop(ctx context.Context, token string) ([]string, bool) {
	data, err := r.client.GetDel(ctx, r.key(token)).Bytes()
	if err != nil {
		// redis.Nil covers unknown, consumed, and expired tokens alike.
		return nil, false
	}
	ids, err := decodeIDs(data)
	if err != nil {
		return nil, false
	}
	return ids, true
}

func (r *RedisStore) Peek(ctx context.Context, token string) ([]string, bool) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		return nil, false
	}
	ids, err := decodeIDs(data)
	if err != nil {
		return nil, false
	}
	return ids, true
}

// Collect is a no-op: Redis expires keys on its own.
func (r *RedisStore) Collect(ctx context.Context) int {
	return 0
}

func encodeIDs(ids []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ids); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeIDs(data []byte) ([]string, error) {
	var ids []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}
