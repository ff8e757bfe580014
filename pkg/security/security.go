package security

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const preflightMaxAge = 12 * time.Hour

// CORS reflects whitelisted origins back with credentials enabled. The
// dashboard is a browser app on a separate origin, so credentialed requests
// cannot use a wildcard.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	maxAge := strconv.Itoa(int(preflightMaxAge.Seconds()))

	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				header := c.Writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				header.Set("Access-Control-Max-Age", maxAge)
				header.Set("Vary", "Origin")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Secure adds the standard hardening headers. The API serves JSON and report
// artifacts only, so framing and sniffing are always denied.
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// clientBucket tracks one caller's token bucket and when it was last used.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateTable is a limiter per client key with background eviction of idle
// entries, so the map does not grow with every address ever seen.
type rateTable struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rate    rate.Limit
	burst   int
}

func newRateTable(maxRequests int, window time.Duration) *rateTable {
	return &rateTable{
		buckets: make(map[string]*clientBucket),
		rate:    rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
	}
}

func (t *rateTable) allow(key string) bool {
	t.mu.Lock()
	bucket, ok := t.buckets[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.buckets[key] = bucket
	}
	bucket.lastSeen = time.Now()
	t.mu.Unlock()
	return bucket.limiter.Allow()
}

func (t *rateTable) evictIdle(olderThan time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, bucket := range t.buckets {
		if time.Since(bucket.lastSeen) > olderThan {
			delete(t.buckets, key)
		}
	}
}

// RateLimiter caps each client IP at maxRequests per window.
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	table := newRateTable(maxRequests, window)

	idle := window * 3
	if idle < time.Minute {
		idle = time.Minute
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			table.evictIdle(idle)
		}
	}()

	return func(c *gin.Context) {
		if !table.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
