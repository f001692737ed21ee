package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/unwindlabs/tranchegate/internal/config"
)

// limiterPool hands out one token bucket per caller key.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	qps      rate.Limit
	burst    int
}

func newLimiterPool(qps float64, burst int) *limiterPool {
	if qps <= 0 {
		qps = 20
	}
	if burst <= 0 {
		burst = int(qps) * 2
	}
	return &limiterPool{
		limiters: make(map[string]*rate.Limiter),
		qps:      rate.Limit(qps),
		burst:    burst,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.qps, p.burst)
		p.limiters[key] = l
	}
	return l
}

// RateLimitMiddleware throttles each caller (keeper or seller client)
// independently. Must run after AuthMiddleware.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	pool := newLimiterPool(cfg.Rate.QPS, cfg.Rate.Burst)
	return func(c *gin.Context) {
		caller := c.GetString(ContextCallerKey)
		if caller == "" {
			caller = c.ClientIP()
		}
		if !pool.get(caller).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
