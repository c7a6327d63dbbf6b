package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/easyweb3tools/polymarket-relations/internal/config"
)

// RateLimiter gates a route per client key (remote IP), returning HTTP 429
// on exhaustion per spec §5 ("per-key via a gate at request entry that
// returns a retryable error on exhaustion") and §6's exact /api/dependencies
// 429 body.
type RateLimiter struct {
	cfg      config.RateLimitConfig
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg, limiters: map[string]*rate.Limiter{}}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.String(http.StatusTooManyRequests, "429 Failure – rate limit exceeded for dependencies")
			c.Abort()
			return
		}
		c.Next()
	}
}
