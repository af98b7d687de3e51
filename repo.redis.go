package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionKeyPrefix namespaces the session states in redis.
const SessionKeyPrefix string = "ladm:session:"

var _ StateStore = (*redisStateStore)(nil)

type redisStateStore struct {
	logger *zap.Logger
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore provides a redis-based session state store. Each
// state is a plain key which expires after ttl.
func NewRedisStateStore(logger *zap.Logger, client *redis.Client, ttl time.Duration) StateStore {
	return &redisStateStore{
		logger: logger,
		client: client,
		ttl:    ttl,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

func sessionKey(sessionID string) string {
	return SessionKeyPrefix + sessionID
}

// Load retrieves the state saved for a session.
func (rs *redisStateStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := rs.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Save stores the state of a session and resets its expiry.
func (rs *redisStateStore) Save(ctx context.Context, sessionID string, state []byte) error {
	return rs.client.Set(ctx, sessionKey(sessionID), state, rs.ttl).Err()
}

// Delete removes the state of a session. Deleting a missing state is not an error.
func (rs *redisStateStore) Delete(ctx context.Context, sessionID string) error {
	return rs.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Purge is a no-op since redis expires the session keys itself.
func (rs *redisStateStore) Purge(_ context.Context) (int, error) {
	return 0, nil
}
