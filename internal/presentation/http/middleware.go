package http

import (
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type HTTPRateLimitConfig struct {
	RequestsPerMinute int
}

type RateLimitable interface {
	GetRateLimitConfig() HTTPRateLimitConfig
}

// clientWindow counts requests inside one fixed minute window.
type clientWindow struct {
	requests    int
	windowStart time.Time
}

// sweepInterval bounds how often expired client windows are evicted.
const sweepInterval = 5 * time.Minute

type RateLimitMiddleware struct {
	config     HTTPRateLimitConfig
	logger     *zap.Logger
	clients    map[string]*clientWindow
	clientsMux sync.Mutex
	lastSweep  time.Time
}

func NewRateLimitMiddleware(config HTTPRateLimitConfig, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		config:    config,
		logger:    logger,
		clients:   make(map[string]*clientWindow),
		lastSweep: time.Now(),
	}
}

func (m *RateLimitMiddleware) Apply(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		clientIP := string(ctx.Request.Header.Peek("X-Forwarded-For"))
		if clientIP == "" {
			clientIP = ctx.RemoteIP().String()
		}

		if !m.allow(clientIP) {
			m.logger.Warn("Rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("path", string(ctx.Path())),
			)

			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":{"code":"RATE_LIMIT_EXCEEDED","message":"Rate limit exceeded"}}`)
			return
		}

		next(ctx)
	}
}

func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := time.Now()

	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if now.Sub(m.lastSweep) > sweepInterval {
		m.sweep(now)
	}

	client, exists := m.clients[clientIP]
	if !exists || now.Sub(client.windowStart) > time.Minute {
		m.clients[clientIP] = &clientWindow{requests: 1, windowStart: now}
		return true
	}

	if client.requests >= m.config.RequestsPerMinute {
		return false
	}

	client.requests++
	return true
}

// sweep drops expired windows so the table stays bounded by the set of
// clients seen in the last minute.
func (m *RateLimitMiddleware) sweep(now time.Time) {
	for ip, client := range m.clients {
		if now.Sub(client.windowStart) > time.Minute {
			delete(m.clients, ip)
		}
	}
	m.lastSweep = now
}

func ApplyMiddleware(handler fasthttp.RequestHandler, logger *zap.Logger, configurable interface{}) fasthttp.RequestHandler {
	if rateLimitable, ok := configurable.(RateLimitable); ok {
		rateLimitConfig := rateLimitable.GetRateLimitConfig()
		rateLimitMiddleware := NewRateLimitMiddleware(rateLimitConfig, logger)
		return rateLimitMiddleware.Apply(handler)
	}

	return handler
}
