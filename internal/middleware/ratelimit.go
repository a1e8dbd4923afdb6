package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"consultant-access/internal/logger"
	"consultant-access/internal/ratelimit"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds token bucket limiters for different clients.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		stop:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// getLimiter returns the rate limiter for the given IP
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[ip]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists = rl.limiters[ip]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// cleanup removes idle limiters periodically to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware is the general per-IP tier applied to every route.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		reservation := rl.getLimiter(ip).Reserve()

		if !reservation.OK() || reservation.Delay() > 0 {
			retryAfter := reservation.Delay()
			reservation.Cancel()

			logger.WithRequestID(GetRequestID(c)).Warn("Rate limit exceeded",
				zap.String("tier", "general"),
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("event", "rate_limited"),
			)
			rejectRateLimited(c, retryAfter)
			return
		}

		c.Next()
	}
}

// KeyFunc derives the bucket key of a request for a window tier.
type KeyFunc func(c *gin.Context) string

// Tier is a fixed-window limit backed by a ratelimit.Store.
type Tier struct {
	Name   string
	Limit  int
	Window time.Duration
	Key    KeyFunc

	// SkipSuccessful gives the hit back when the handler answers below 400.
	SkipSuccessful bool
}

// WindowLimit enforces tier through store. Store failures let the request through.
func WindowLimit(store ratelimit.Store, tier Tier) gin.HandlerFunc {
	if tier.Key == nil {
		tier.Key = ByIP
	}

	return func(c *gin.Context) {
		key := tier.Name + ":" + tier.Key(c)
		ctx := c.Request.Context()

		count, ttl, err := store.Increment(ctx, key, tier.Window)
		if err != nil {
			logger.WithRequestID(GetRequestID(c)).Warn("Rate limit store unavailable, allowing request",
				zap.String("tier", tier.Name),
				zap.Error(err),
				zap.String("event", "rate_limit_store_error"),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(tier.Limit))
		if count > int64(tier.Limit) {
			c.Header("X-RateLimit-Remaining", "0")

			logger.WithRequestID(GetRequestID(c)).Warn("Rate limit exceeded",
				zap.String("tier", tier.Name),
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Int64("count", count),
				zap.String("event", "rate_limited"),
			)
			rejectRateLimited(c, ttl)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(tier.Limit)-count, 10))

		c.Next()

		if tier.SkipSuccessful && c.Writer.Status() < http.StatusBadRequest {
			if err := store.Decrement(ctx, key); err != nil {
				logger.Warn("Failed to release rate limit hit", zap.String("tier", tier.Name), zap.Error(err))
			}
		}
	}
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	utils.ErrorResponseWithDetails(c, http.StatusTooManyRequests,
		appErrors.CodeRateLimited, appErrors.ErrRateLimited.Message,
		map[string]any{"retry_after_seconds": seconds},
	)
	c.Abort()
}

func ByIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByPrincipal keys on the authenticated account, falling back to the client ip.
func ByPrincipal(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok {
		return p.AccountID().String()
	}
	return c.ClientIP()
}

// LimitedIdentifierKey holds the normalized identifier a window tier counted.
const LimitedIdentifierKey = "limited_identifier"

// ByIPAndIdentifier keys on the client ip plus the first of fields found in
// the JSON body. Field names match the way encoding/json binds a struct:
// case-insensitively, with the last duplicate winning. The body is restored
// for the handler and the counted identifier is stored under
// LimitedIdentifierKey so the handler acts on the same account.
func ByIPAndIdentifier(fields ...string) KeyFunc {
	return func(c *gin.Context) string {
		ip := c.ClientIP()
		if c.Request.Body == nil {
			return ip
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil || len(body) == 0 {
			return ip
		}

		identifier := identifierFromBody(body, fields)
		if identifier == "" {
			return ip
		}
		c.Set(LimitedIdentifierKey, identifier)
		return ip + ":" + identifier
	}
}

// GetLimitedIdentifier returns the identifier ByIPAndIdentifier counted.
func GetLimitedIdentifier(c *gin.Context) (string, bool) {
	if value, exists := c.Get(LimitedIdentifierKey); exists {
		if identifier, ok := value.(string); ok {
			return identifier, true
		}
	}
	return "", false
}

func identifierFromBody(body []byte, fields []string) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}

	values := make(map[string]string, len(fields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return ""
		}
		for _, field := range fields {
			if !strings.EqualFold(key, field) {
				continue
			}
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				delete(values, field)
				continue
			}
			values[field] = value
		}
	}

	for _, field := range fields {
		if value := utils.NormalizeIdentifier(values[field]); value != "" {
			return value
		}
	}
	return ""
}
