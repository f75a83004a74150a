package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (client IP or user id).
type KeyedRateLimiter struct {
	entries map[string]*rateLimiterEntry
	mu      sync.Mutex
	r       rate.Limit
	burst   int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with
// the given burst for every key.
func NewKeyedRateLimiter(r rate.Limit, burst int) *KeyedRateLimiter {
	rl := &KeyedRateLimiter{
		entries: make(map[string]*rateLimiterEntry),
		r:       r,
		burst:   burst,
	}

	go rl.cleanup()

	return rl
}

func (rl *KeyedRateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for key, entry := range rl.entries {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether key may perform one more event now.
func (rl *KeyedRateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

func (rl *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

var (
	// Auth endpoints: 20 requests per minute per IP
	AuthLimiter = NewKeyedRateLimiter(rate.Limit(20.0/60.0), 10)

	// General API: 600 requests per minute per IP
	GeneralLimiter = NewKeyedRateLimiter(rate.Limit(10.0), 50)

	// Problem mutations (HTTP and socket): 120 per minute per user
	MutationLimiter = NewKeyedRateLimiter(rate.Limit(2.0), 20)
)

// RateLimitMiddleware limits by client IP.
func RateLimitMiddleware(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// UserRateLimitMiddleware limits by authenticated user, falling back to IP.
func UserRateLimitMiddleware(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := CurrentUserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	logger.Warn().
		Str("ip", c.ClientIP()).
		Str("user_id", CurrentUserID(c)).
		Str("path", c.Request.URL.Path).
		Msg("Rate limit exceeded")

	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"kind":    errors.KindRateLimit,
		"error":   "Rate limit exceeded. Please slow down.",
	})
}

func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AuthLimiter)
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

// MutationRateLimit must run after AuthMiddleware.
func MutationRateLimit() gin.HandlerFunc {
	return UserRateLimitMiddleware(MutationLimiter)
}
