package ip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/robalyx/tribunal/internal/rest/middleware/header"
	"github.com/robalyx/tribunal/internal/rest/response"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type ipCtxKey struct{}

// UnknownIP is returned when no client address was resolved.
const UnknownIP = "unknown"

// FromContext retrieves the client IP from the context.
func FromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipCtxKey{}).(string); ok {
		return ip
	}
	return UnknownIP
}

// Middleware resolves the client address and stores it in the context.
// Requests without a usable address are refused.
type Middleware struct {
	checker *Checker
	logger  *zap.Logger
	config  *config.IPConfig
}

// New creates a new IP middleware.
func New(logger *zap.Logger, config *config.IPConfig) *Middleware {
	logger = logger.Named("ip_middleware")
	return &Middleware{
		checker: NewChecker(logger, config),
		logger:  logger,
		config:  config,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for IP resolution.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		remoteAddr := header.FromRemoteAddr(req.Context())

		addr, ok := m.resolve(remoteAddr, req.Header)
		if !ok {
			m.logger.Warn("Refusing request without a usable client address",
				zap.String("remoteAddr", remoteAddr))
			return response.Error(w, http.StatusForbidden, "request must include a valid public IP address")
		}

		ctx := context.WithValue(req.Context(), ipCtxKey{}, addr.String())
		return next(w, req.WithContext(ctx))
	}
}

// resolve picks the client address. Proxy headers are consulted only when
// enabled and the peer is a trusted proxy; otherwise the peer address is used.
func (m *Middleware) resolve(remoteAddr string, headers http.Header) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}

	if m.config.EnableHeaderCheck && m.checker.IsTrustedProxy(peer) {
		if addr, ok := m.fromHeaders(headers); ok {
			return addr, true
		}
		m.logger.Debug("Trusted proxy sent no usable client header", zap.Stringer("proxy", peer))
	}

	peer = peer.Unmap()
	return peer, m.checker.IsUsable(peer)
}

// fromHeaders reads the configured headers in order. List-valued headers
// such as X-Forwarded-For are walked right to left, nearest hop first.
func (m *Middleware) fromHeaders(headers http.Header) (netip.Addr, bool) {
	for _, name := range m.config.CustomHeaders {
		value := headers.Get(name)
		if value == "" {
			continue
		}

		hops := strings.Split(value, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			if addr, ok := m.checker.Parse(hops[i]); ok {
				return addr, true
			}
		}
	}
	return netip.Addr{}, false
}
