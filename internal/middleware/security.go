package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"dealerscout/internal/logger"
)

// RateLimiter stores rate limiters for each IP
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}

	// Clean up old entries every minute
	go rl.cleanupVisitors()

	return rl
}

// GetLimiter returns the rate limiter for the given IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)

		if !l.Allow() {
			logger.WithFields(logrus.Fields{"ip": ip, "path": c.Request.URL.Path}).Warn("rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Please slow down your requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyFunc picks the throttle bucket for a request.
type KeyFunc func(c *gin.Context) string

// ByParam buckets requests by a route parameter, e.g. the zip code.
func ByParam(name string) KeyFunc {
	return func(c *gin.Context) string { return c.Param(name) }
}

// ThrottleMiddleware admits one request per key every interval. A browser
// crawl is expensive, so repeated discovery for the same region is refused
// until the interval has passed.
func ThrottleMiddleware(interval time.Duration, key KeyFunc) gin.HandlerFunc {
	var (
		last = make(map[string]time.Time)
		mu   sync.Mutex
	)

	return func(c *gin.Context) {
		k := key(c)

		mu.Lock()
		since := time.Since(last[k])
		if seen, ok := last[k]; ok && since < interval {
			mu.Unlock()
			remaining := interval - time.Since(seen)
			logger.WithFields(logrus.Fields{"key": k, "ip": c.ClientIP()}).Debug("throttled")
			c.Header("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Request too frequent",
				"message": fmt.Sprintf("Please wait %d minutes before trying again", int(remaining.Minutes())),
			})
			c.Abort()
			return
		}
		last[k] = time.Now()
		mu.Unlock()

		c.Next()
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", buildCSPPolicy(c.Request.URL.Path))
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		// Hide server information
		c.Header("Server", "")

		// Discovery and scrape results are always live
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.Next()
	}
}

// AdminKeyMiddleware protects admin endpoints with a simple key. An empty
// adminKey locks the endpoints entirely.
func AdminKeyMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			key = c.Query("admin_key")
		}

		if adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			logger.WithFields(logrus.Fields{"ip": c.ClientIP(), "path": c.Request.URL.Path}).Warn("admin key rejected")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SecurityScanDetection logs suspicious requests for fail2ban
func SecurityScanDetection() gin.HandlerFunc {
	suspiciousPaths := []string{
		".env", ".git", ".DS_Store", "wp-admin", "phpmyadmin",
		".htaccess", "config.php", "wp-config.php", ".ssh", "id_rsa",
		".bak", ".sql", "credentials",
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		ip := c.ClientIP()

		for _, suspicious := range suspiciousPaths {
			if strings.Contains(path, suspicious) {
				logger.WithFields(logrus.Fields{"ip": ip, "method": c.Request.Method, "path": path}).
					Warn("security scan attempt")
				break
			}
		}

		query := strings.ToLower(c.Request.URL.RawQuery)
		for _, keyword := range []string{"union", "select", "drop", "insert"} {
			if strings.Contains(query, keyword) {
				logger.WithFields(logrus.Fields{"ip": ip, "query": c.Request.URL.RawQuery}).
					Warn("sql injection attempt")
				break
			}
		}

		c.Next()
	}
}

// HTTPMethodFilter restricts allowed HTTP methods
func HTTPMethodFilter(allowedMethods []string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, method := range allowedMethods {
		allowed[method] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			logger.WithFields(logrus.Fields{"ip": c.ClientIP(), "method": c.Request.Method}).Warn("blocked http method")
			c.JSON(http.StatusMethodNotAllowed, gin.H{
				"error": "Method not allowed",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserAgentFilter blocks requests with suspicious or missing user agents
func UserAgentFilter() gin.HandlerFunc {
	suspiciousAgents := []string{
		"sqlmap", "nikto", "nmap", "masscan", "zap", "gobuster",
		"dirb", "dirbuster", "burp", "w3af", "havij", "libwww",
	}

	return func(c *gin.Context) {
		userAgent := strings.ToLower(c.GetHeader("User-Agent"))
		ip := c.ClientIP()

		if userAgent == "" {
			logger.WithField("ip", ip).Warn("blocked empty user agent")
			c.JSON(http.StatusForbidden, gin.H{"error": "User agent required"})
			c.Abort()
			return
		}

		for _, suspicious := range suspiciousAgents {
			if strings.Contains(userAgent, suspicious) {
				logger.WithFields(logrus.Fields{"ip": ip, "user_agent": userAgent}).Warn("blocked suspicious user agent")
				c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// HoneypotEndpoints answers common scanner targets slowly with a 404.
func HoneypotEndpoints(delay time.Duration) gin.HandlerFunc {
	honeypots := map[string]bool{
		"/admin.php": true, "/wp-login.php": true, "/login.php": true, "/admin/login": true,
		"/administrator": true, "/xmlrpc.php": true, "/wp-admin/admin-ajax.php": true,
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !honeypots[path] {
			c.Next()
			return
		}

		logger.WithFields(logrus.Fields{"ip": c.ClientIP(), "path": path}).Warn("honeypot triggered")
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		c.Abort()
	}
}

// buildCSPPolicy returns the Content Security Policy. The swagger UI needs
// inline scripts, so it gets the relaxed policy in every mode.
func buildCSPPolicy(path string) string {
	if os.Getenv("GIN_MODE") != "release" || strings.HasPrefix(path, "/swagger/") {
		return "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data: https:; " +
			"connect-src 'self';"
	}

	return "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self'; " +
		"img-src 'self' data: https:; " +
		"connect-src 'self'; " +
		"font-src 'self'; " +
		"object-src 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'; " +
		"frame-ancestors 'none'; " +
		"upgrade-insecure-requests;"
}
