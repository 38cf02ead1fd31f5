package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"umrahcheck/apperrors"
	"umrahcheck/metrics"
)

// ─── Rate limiting ────────────────────────────────────────────────────────────

// RateLimiter hands out one token bucket per client IP. Idle buckets expire
// after 30 minutes.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *gocache.Cache
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: gocache.New(30*time.Minute, 5*time.Minute),
	}
}

func (l *RateLimiter) forIP(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		l.limiters.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// a concurrent first request from the same IP may win; keep whichever is stored
	if err := l.limiters.Add(ip, lim, gocache.DefaultExpiration); err != nil {
		if v, ok := l.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.forIP(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Success: false,
				Status:  "failed",
				Error: errorBody{
					Code:    apperrors.CodeRateLimited,
					Message: "Too many requests, please try again in a minute",
				},
			})
			return
		}
		c.Next()
	}
}

// ─── Recovery ─────────────────────────────────────────────────────────────────

// Recovery turns a panic into a 500 JSON response and reports it.
func Recovery(logger *zap.Logger, reporter PanicReporter) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("❌ Panic recovered",
			zap.String("route", c.FullPath()),
			zap.Any("panic", recovered))
		if reporter != nil {
			reporter.CaptureMessage(fmt.Sprintf("panic: %v", recovered), map[string]string{
				"route":  c.FullPath(),
				"method": c.Request.Method,
			})
		}
		writeError(c, fmt.Errorf("panic: %v", recovered))
	})
}

// ─── Request logging & metrics ────────────────────────────────────────────────

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(code)).Inc()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", code),
			zap.Duration("took", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if code >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
