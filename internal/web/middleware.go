package web

import (
	"log"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorIdle is how long a client's bucket outlives its last request.
const visitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorLimits holds one token bucket per client. Idle buckets are swept
// on access, at most once per idle period.
type visitorLimits struct {
	r    rate.Limit
	b    int
	idle time.Duration
	now  func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newVisitorLimits(r rate.Limit, b int, idle time.Duration, now func() time.Time) *visitorLimits {
	return &visitorLimits{r: r, b: b, idle: idle, now: now, visitors: make(map[string]*visitor), lastSweep: now()}
}

func (v *visitorLimits) allow(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if now.Sub(v.lastSweep) >= v.idle {
		for key, entry := range v.visitors {
			if now.Sub(entry.lastSeen) >= v.idle {
				delete(v.visitors, key)
			}
		}
		v.lastSweep = now
	}

	entry, ok := v.visitors[ip]
	if !ok {
		entry = &visitor{limiter: rate.NewLimiter(v.r, v.b)}
		v.visitors[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (v *visitorLimits) handler(c *gin.Context) {
	if !v.allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
		return
	}
	c.Next()
}

// RateLimiter keeps one token bucket per client IP.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return newVisitorLimits(r, b, visitorIdle, time.Now).handler
}

func RecoveryWithLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[web] panic recovered: %v\n%s", err, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			}
		}()
		c.Next()
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
