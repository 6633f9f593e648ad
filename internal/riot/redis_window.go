package riot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and admits atomically. It returns 0 when the
// request was admitted, otherwise the milliseconds until the oldest entry expires.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local width = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - width)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, width)
	return 0
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = tonumber(oldest[2]) + width - now
if wait < 1 then
	wait = 1
end
return wait
`)

// RedisWindowConfig configures a RedisWindow
type RedisWindowConfig struct {
	Client *redis.Client
	Key    string
	Limit  int
	Width  time.Duration
	Now    func() time.Time
	Sleep  SleepFunc
}

// RedisWindow is a sliding window kept in a Redis sorted set, so that every
// process pointed at the same key routes admission through one arbiter.
type RedisWindow struct {
	client *redis.Client
	key    string
	limit  int
	width  time.Duration
	now    func() time.Time
	sleep  SleepFunc
}

// NewRedisWindow creates a shared window
func NewRedisWindow(cfg *RedisWindowConfig) (*RedisWindow, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.Limit <= 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("invalid window %d/%s", cfg.Limit, cfg.Width)
	}

	w := &RedisWindow{
		client: cfg.Client,
		key:    cfg.Key,
		limit:  cfg.Limit,
		width:  cfg.Width,
		now:    cfg.Now,
		sleep:  cfg.Sleep,
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.sleep == nil {
		w.sleep = sleepContext
	}
	return w, nil
}

// Wait blocks until the shared window admits the request.
func (w *RedisWindow) Wait(ctx context.Context) error {
	member := uuid.NewString()
	for {
		waitMs, err := slidingWindowScript.Run(ctx, w.client, []string{w.key},
			w.now().UnixMilli(), w.width.Milliseconds(), w.limit, member).Int64()
		if err != nil {
			return fmt.Errorf("redis window %s: %w", w.key, err)
		}
		if waitMs == 0 {
			return nil
		}

		waitTime := time.Duration(waitMs) * time.Millisecond
		admissionWait.Observe(waitTime.Seconds())
		if err := w.sleep(ctx, waitTime); err != nil {
			return err
		}
	}
}
