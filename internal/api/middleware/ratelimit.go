package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"resume-render/internal/logging"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a token bucket per client IP
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
	mu      sync.Mutex
	logger  logging.Logger
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter allows requestsPerMinute per client with the given burst.
// A zero rate disables limiting.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		logger:  logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		stop:    make(chan struct{}),
	}
	if requestsPerMinute > 0 {
		go rl.cleanupRoutine()
	}
	return rl
}

// Allow reports whether client may make a request now
func (rl *RateLimiter) Allow(client string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

// Middleware rejects requests over the client's budget with 429
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := c.RealIP()
			if rl.Allow(client) {
				return next(c)
			}

			requestID := RequestID(c)
			cerr := utils.NewTooManyRequestsError("Too many render requests, try again shortly")
			rl.logger.Warn("Rate limit exceeded", map[string]interface{}{
				"request_id": requestID,
				"client":     client,
				"path":       c.Path(),
			})
			c.Response().Header().Set("Retry-After", "60")
			return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:     cerr.Code,
				Message:   cerr.Message,
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
	}
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-limiterIdleTTL))
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for client, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Cleaned up idle client limiters", map[string]interface{}{"removed_count": removed})
	}
}

// Stop ends the cleanup routine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
