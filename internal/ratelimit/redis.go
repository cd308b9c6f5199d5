package ratelimit

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	apperrors "github.com/flowtrade/portal/internal/errors"
)

const redisKeyPrefix = "portal:ratelimit:"

// admitScript applies the fixed-window rule atomically on the Redis server.
// KEYS[1] window hash, ARGV[1] now (unix ms), ARGV[2] window (ms), ARGV[3] limit.
// Returns {admitted, remaining, resetAt (unix ms)}.
var admitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset'))
if not reset or now >= reset then
  reset = now + window
  redis.call('HSET', KEYS[1], 'count', 1, 'reset', reset)
  redis.call('PEXPIRE', KEYS[1], window)
  return {1, limit - 1, reset}
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if count >= limit then
  return {0, 0, reset}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, limit - count, reset}
`)

// RedisLimiter keeps fixed windows in Redis so every replica shares the same counters.
// Windows expire on the server, no sweeping is needed.
type RedisLimiter struct {
	client redis.Scripter
	secret []byte
}

// NewRedisLimiter creates a limiter backed by client. When secret is non-empty identifiers
// are stored as keyed BLAKE2b digests instead of raw client addresses.
func NewRedisLimiter(client redis.Scripter, secret string) (*RedisLimiter, error) {
	if len(secret) > blake2b.Size {
		return nil, apperrors.Wrapf(
			apperrors.ErrInvalidInput,
			"rate limit key secret must be at most %d bytes",
			blake2b.Size,
		)
	}
	return &RedisLimiter{client: client, secret: []byte(secret)}, nil
}

// Admit records a request for identifier and reports whether it fits in the current window.
func (r *RedisLimiter) Admit(
	ctx context.Context,
	identifier string,
	windowSize time.Duration,
	limit int,
	now time.Time,
) (Decision, error) {
	if err := validateArgs(windowSize, limit); err != nil {
		return Decision{}, err
	}

	key, err := r.key(identifier)
	if err != nil {
		return Decision{}, err
	}

	res, err := admitScript.Run(
		ctx,
		r.client,
		[]string{key},
		now.UnixMilli(),
		windowSize.Milliseconds(),
		limit,
	).Int64Slice()
	if err != nil {
		return Decision{}, apperrors.Wrap(err, "failed to evaluate rate limit")
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	return Decision{
		Admitted:  res[0] == 1,
		Limit:     limit,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).In(now.Location()),
	}, nil
}

func (r *RedisLimiter) key(identifier string) (string, error) {
	if len(r.secret) == 0 {
		return redisKeyPrefix + identifier, nil
	}
	h, err := blake2b.New256(r.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to create rate limit key hash")
	}
	h.Write([]byte(identifier))
	return redisKeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
