package demoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis accepts either a redis:// URL or a bare host:port address.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisChallengeStore keeps 2FA challenges in Redis so demo restarts don't
// strand an in-flight login.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Put(ctx context.Context, key string, challenge Challenge, ttl time.Duration) error {
	raw, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "demoapi:challenge:"+key, raw, ttl).Err()
}

func (s *RedisChallengeStore) Get(ctx context.Context, key string) (*Challenge, error) {
	raw, err := s.client.Get(ctx, "demoapi:challenge:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out Challenge
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, "demoapi:challenge:"+key).Err()
}

// RedisLockoutStore tracks failed-login counters with TTL-bounded keys.
type RedisLockoutStore struct {
	client *redis.Client
}

func NewRedisLockoutStore(client *redis.Client) *RedisLockoutStore {
	return &RedisLockoutStore{client: client}
}

func (s *RedisLockoutStore) Get(ctx context.Context, key string) (LockoutState, error) {
	values, err := s.client.HGetAll(ctx, "demoapi:lockout:"+key).Result()
	if err != nil {
		return LockoutState{}, err
	}
	state := LockoutState{}
	if raw, ok := values["failed"]; ok {
		state.FailedCount, _ = strconv.Atoi(raw)
	}
	if raw, ok := values["locked_until"]; ok && raw != "" {
		if ts, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			state.LockedUntil = &ts
		}
	}
	return state, nil
}

func (s *RedisLockoutStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (LockoutState, error) {
	redisKey := "demoapi:lockout:" + key
	failed, err := s.client.HIncrBy(ctx, redisKey, "failed", 1).Result()
	if err != nil {
		return LockoutState{}, err
	}
	state := LockoutState{FailedCount: int(failed)}
	if int(failed) >= threshold {
		until := now.Add(window)
		state.LockedUntil = &until
		if err := s.client.HSet(ctx, redisKey, "locked_until", until.Format(time.RFC3339Nano)).Err(); err != nil {
			return state, err
		}
	}
	if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
		return state, err
	}
	return state, nil
}

func (s *RedisLockoutStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, "demoapi:lockout:"+key).Err()
}
