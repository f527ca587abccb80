package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisTimeout = 5 * time.Second

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisKV stores values in Redis without expiry. It satisfies the same
// Get/Set contract as KVRepository so labels can be shared between hosts.
type RedisKV struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisKV connects to Redis and verifies the connection with a ping.
func NewRedisKV(opts RedisOptions, log *logrus.Logger) (*RedisKV, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	log.WithField("addr", opts.Addr).Info("connecting to redis")

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return &RedisKV{client: client, log: log}, nil
}

// Get returns the value for key and whether it exists.
func (r *RedisKV) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		r.log.WithField("key", key).Debug("redis key not found")
		return "", false, nil
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("redis get failed")
		return "", false, err
	}

	return val, true, nil
}

// Set overwrites the value for key.
func (r *RedisKV) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		r.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("redis set failed")
		return err
	}

	return nil
}

// Close closes the client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}
