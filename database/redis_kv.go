package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KeyValueStore on a Redis server
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV connects to the server at url (redis://host:port/db) and checks it answers
func NewRedisKV(ctx context.Context, url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	Logger.Info("Connected to redis key-value store", "addr", opts.Addr, "db", opts.DB)
	return &RedisKV{rdb: rdb}, nil
}

// KVGet returns the value stored at key
func (r *RedisKV) KVGet(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// KVSet stores value at key without expiry
func (r *RedisKV) KVSet(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

// KVDelete removes key
func (r *RedisKV) KVDelete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// KVKeys scans for keys starting with prefix and returns them sorted
func (r *RedisKV) KVKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks the server is reachable
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the connection pool
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
