package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aryan42/wannameet/internal/models"
)

const tokenTTL = 2 * time.Minute

// RedisStore holds transport tokens. The TTL bounds how long an issued
// token stays claimable; GETDEL makes consumption single-use even with
// several relay instances sharing the same Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis token store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() {
	_ = s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func tokenKey(id string) string {
	return fmt.Sprintf("token:%s", id)
}

// SaveToken stores a token under its id with a TTL.
func (s *RedisStore) SaveToken(ctx context.Context, token *models.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	ttl := tokenTTL
	if token.ExpiresAt > 0 {
		if until := time.Until(time.UnixMilli(token.ExpiresAt)); until > 0 {
			ttl = until
		}
	}

	return s.client.Set(ctx, tokenKey(token.ID), data, ttl).Err()
}

// ConsumeToken removes and returns a token in one round trip.
func (s *RedisStore) ConsumeToken(ctx context.Context, id string) (*models.Token, error) {
	data, err := s.client.GetDel(ctx, tokenKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	var token models.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, err
	}
	return &token, nil
}
