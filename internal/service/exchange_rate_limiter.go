package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExchangeRateLimiter limita cuántos exchanges (llamadas al LLM) hace cada usuario por ventana.
type ExchangeRateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

const (
	exchangeLimitPrefix  = "exchange:rl:"
	exchangeLimitTimeout = 500 * time.Millisecond
	// anonymousExchangeKey agrupa identidades sin user id en un único contador.
	anonymousExchangeKey = "anonymous"
)

// Ventana fija: el primer INCR de la ventana le pone el TTL.
const redisRateAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisExchangeRateLimiter struct {
	client     redisEvaler
	window     time.Duration
	ttlSeconds int
	max        int
}

// NewRedisExchangeRateLimiter devuelve nil sin cliente; MessageService trata nil como "sin límite".
func NewRedisExchangeRateLimiter(client *redis.Client, window time.Duration, max int) ExchangeRateLimiter {
	if client == nil {
		return nil
	}
	return newRedisExchangeRateLimiter(client, window, max)
}

func newRedisExchangeRateLimiter(client redisEvaler, window time.Duration, max int) *redisExchangeRateLimiter {
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisExchangeRateLimiter{
		client:     client,
		window:     window,
		ttlSeconds: int(window / time.Second),
		max:        max,
	}
}

func exchangeLimitKey(userID string) string {
	id := strings.TrimSpace(userID)
	if id == "" {
		id = anonymousExchangeKey
	}
	return exchangeLimitPrefix + id
}

// Allow falla abierto: si redis no responde, la request pasa.
func (l *redisExchangeRateLimiter) Allow(ctx context.Context, userID string) bool {
	if l == nil || l.client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, exchangeLimitTimeout)
	defer cancel()

	count, err := l.client.Eval(ctx, redisRateAllowScript, []string{exchangeLimitKey(userID)}, l.ttlSeconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
