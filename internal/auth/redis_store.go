package auth

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the session keys.
const DefaultRedisPrefix = "fidelidade:session:"

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps the session in Redis so several terminals at one
// counter share a login. It uses two keys, <prefix>token and <prefix>user.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wrapBackendError("connect to redis at "+opts.Addr, err)
	}

	return NewRedisStoreWithClient(client, opts.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) tokenKey() string { return r.prefix + "token" }
func (r *RedisStore) userKey() string  { return r.prefix + "user" }

// Save writes both keys in one transaction.
func (r *RedisStore) Save(ctx context.Context, session Session) error {
	data, err := encodeUser(session.User)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.userKey(), data, 0)
		pipe.Set(ctx, r.tokenKey(), session.Token, 0)
		return nil
	})
	if err != nil {
		return wrapSaveError("write session to redis", err)
	}
	return nil
}

// Load reads both keys. Missing keys mean no session.
func (r *RedisStore) Load(ctx context.Context) (*Session, error) {
	values, err := r.client.MGet(ctx, r.tokenKey(), r.userKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrapBackendError("read session from redis", err)
	}
	if len(values) != 2 {
		return nil, nil
	}

	token, _ := values[0].(string)
	user, _ := values[1].(string)
	return decodeSession(token, []byte(user)), nil
}

// Clear deletes both keys.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		return wrapClearError("delete session from redis", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks that Redis still answers.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
