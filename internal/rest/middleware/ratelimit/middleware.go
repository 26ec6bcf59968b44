package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/robalyx/tribunal/internal/rest/middleware/ip"
	"github.com/robalyx/tribunal/internal/rest/response"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/robalyx/tribunal/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	errBlocked    = "temporarily blocked for repeated rate limit violations"
	errRateLimit  = "too many submissions, please try again later"
	headerRetryAt = "Retry-After"
)

type limiterState struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	strikes      int       // Number of times client has violated the rate limit
	blockedUntil time.Time // Time until client is blocked for repeated violations
}

// Middleware implements per-IP rate limiting.
type Middleware struct {
	limiters *utils.TTLMap[string, *limiterState]
	config   *config.RateLimit
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a new rate limiting middleware.
func New(config *config.RateLimit, logger *zap.Logger) *Middleware {
	// Use the longer of block duration or burst window * 2 for TTL
	ttl := time.Second * time.Duration(config.BurstSize*2)
	if blockTTL := time.Second * time.Duration(config.BlockDuration*2); blockTTL > ttl {
		ttl = blockTTL
	}
	ttl = max(ttl, time.Minute)

	return &Middleware{
		limiters: utils.NewTTLMap[string, *limiterState](ttl),
		config:   config,
		logger:   logger.Named("ratelimit_middleware"),
		now:      time.Now,
	}
}

// Close stops the background cleanup of idle limiters.
func (m *Middleware) Close() {
	m.limiters.Stop()
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		clientIP := ip.FromContext(req.Context())

		allowed, retryAfter, message := m.checkRateLimit(clientIP)
		if !allowed {
			if retryAfter > 0 {
				seconds := int(retryAfter.Round(time.Second).Seconds())
				w.Header().Set(headerRetryAt, strconv.Itoa(max(seconds, 1)))
			}
			return response.Error(w, http.StatusTooManyRequests, message)
		}

		return next(w, req)
	}
}

// getLimiter returns the limiter state for the specified IP.
func (m *Middleware) getLimiter(clientIP string) *limiterState {
	return m.limiters.GetOrCreate(clientIP, func() *limiterState {
		return &limiterState{
			limiter: rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize),
		}
	})
}

// checkRateLimit checks if the request should be allowed and updates violation tracking.
// Returns whether the request is allowed, how long to wait, and the rejection message.
func (m *Middleware) checkRateLimit(clientIP string) (bool, time.Duration, string) {
	state := m.getLimiter(clientIP)

	state.mu.Lock()
	defer state.mu.Unlock()

	now := m.now()

	if !state.blockedUntil.IsZero() && now.Before(state.blockedUntil) {
		retryAfter := state.blockedUntil.Sub(now)
		m.logger.Debug("Client is temporarily blocked",
			zap.String("ip", clientIP),
			zap.Duration("retryAfter", retryAfter))
		return false, retryAfter, errBlocked
	}

	var delay time.Duration
	reservation := state.limiter.ReserveN(now, 1)
	if reservation.OK() {
		delay = reservation.DelayFrom(now)
		if delay == 0 {
			state.strikes = 0
			return true, 0, ""
		}
		reservation.CancelAt(now)
	}

	state.strikes++
	if state.strikes >= m.config.StrikeLimit {
		blockDuration := time.Duration(m.config.BlockDuration) * time.Second
		state.blockedUntil = now.Add(blockDuration)
		state.strikes = 0

		m.logger.Warn("Client exceeded strike limit and is now blocked",
			zap.String("ip", clientIP),
			zap.Int("strikes", m.config.StrikeLimit),
			zap.Duration("blockDuration", blockDuration))

		return false, blockDuration, errBlocked
	}

	m.logger.Debug("Rate limit exceeded",
		zap.String("ip", clientIP),
		zap.Duration("delay", delay),
		zap.Int("strikes", state.strikes))

	return false, delay, errRateLimit
}
