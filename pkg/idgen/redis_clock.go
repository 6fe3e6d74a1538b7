package idgen

import (
	"context"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

// Clock is the millisecond time source for Snowflake.
type Clock interface {
	Now() int64
}

// SystemClock uses the local system time.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// RedisClock reads TIME from the shared redis so agents agree on ordering
// despite local clock skew.
type RedisClock struct {
	client  redis.Cmdable
	timeout time.Duration
}

func NewRedisClock(client redis.Cmdable) *RedisClock {
	return &RedisClock{client: client, timeout: 500 * time.Millisecond}
}

func (r *RedisClock) Now() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	res, err := r.client.Time(ctx).Result()
	if err != nil {
		logger.Debugw("Redis clock unavailable, using system time", "error", err.Error())
		return time.Now().UnixMilli()
	}
	return res.UnixMilli()
}
