package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const RequestIDKey = "request_id"

// RequestLogger emits one structured line per request.
func RequestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if merchantID := auth.GetMerchantID(c.Request.Context()); merchantID != "" {
			fields = append(fields, zap.String("merchant_id", merchantID))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request completed", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// MerchantContext requires X-Merchant-ID and stores it, with X-User-ID, on the request context.
func MerchantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID := c.GetHeader("X-Merchant-ID")
		if merchantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing merchant context"})
			return
		}
		ctx := auth.WithUser(c.Request.Context(), merchantID, c.GetHeader("X-User-ID"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// KeyedLimiter hands out one token bucket per key. Buckets idle for longer
// than their refill time are dropped; a fresh bucket behaves the same.
type KeyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const defaultLimiterIdle = 10 * time.Minute

func NewKeyedLimiter(r rate.Limit, burst int) *KeyedLimiter {
	idle := defaultLimiterIdle
	if r > 0 && r != rate.Inf {
		idle = max(time.Duration(float64(burst)/float64(r)*float64(time.Second)), time.Minute)
	}
	return &KeyedLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      r,
		burst:     burst,
		idle:      idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	now := kl.now()
	if now.Sub(kl.lastSweep) >= kl.idle {
		kl.sweep(now)
	}
	e, ok := kl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(kl.rate, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = now
	kl.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// sweep must be called with mu held.
func (kl *KeyedLimiter) sweep(now time.Time) {
	for key, e := range kl.limiters {
		if now.Sub(e.lastSeen) >= kl.idle {
			delete(kl.limiters, key)
		}
	}
	kl.lastSweep = now
}

// Len reports how many buckets are tracked.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// RateLimit throttles by client IP.
func RateLimit(kl *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !kl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
