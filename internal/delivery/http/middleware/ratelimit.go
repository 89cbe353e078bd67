package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	h "eventreserve/internal/delivery/http/helpers"
)

// RateLimitConfig tunes the Redis-backed token bucket.
type RateLimitConfig struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	KeyTTL         time.Duration
}

// DefaultRateLimitConfig allows bursts of 60 requests refilled at one
// per second per client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		KeyTTL:         10 * time.Minute,
	}
}

// tokenBucketScript refills and consumes one token atomically. Returns
// {allowed, remaining}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals * refill_tokens)
	last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens }
`)

// RateLimit returns a middleware limiting requests per client IP with a
// Redis token bucket. A nil client disables limiting entirely, and a
// Redis error lets the request through: the limiter protects capacity,
// it must not become an outage of its own.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client, logger *slog.Logger, next http.Handler) http.Handler {
	if rdb == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := "rl:" + ip

		vals, err := tokenBucketScript.Run(r.Context(), rdb, []string{key},
			time.Now().UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.KeyTTL/time.Second),
		).Int64Slice()
		if err != nil {
			logger.Warn("rate limiter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if len(vals) == 2 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))
		}
		if len(vals) != 2 || vals[0] != 1 {
			h.WriteJSONError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
