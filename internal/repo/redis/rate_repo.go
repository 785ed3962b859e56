package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateRepo keeps fixed counting windows for the action limiter. A window
// starts on its first hit and lasts until the key expires.
type RateRepo struct {
	client *goredis.Client
}

func NewRateRepo(client *goredis.Client) *RateRepo {
	return &RateRepo{client: client}
}

// IncrementWindow counts one hit and returns the window's count and remaining
// lifetime. A key left without expiry, e.g. after a failed EXPIRE, is given a
// fresh window instead of counting forever.
func (r *RateRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	var incr *goredis.IntCmd
	var pttl *goredis.DurationCmd
	if _, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, fmt.Errorf("increment rate window %s: %w", key, err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl < 0 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set rate window ttl %s: %w", key, err)
		}
		ttl = window
	}
	return count, ttl, nil
}

// WindowState reads a window without counting a hit.
func (r *RateRepo) WindowState(ctx context.Context, key string) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, 0, fmt.Errorf("rate key is required")
	}

	var get *goredis.StringCmd
	var pttl *goredis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, 0, fmt.Errorf("read rate window %s: %w", key, err)
	}

	count, err := get.Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("parse rate window %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}
