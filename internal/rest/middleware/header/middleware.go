package header

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in requests and responses.
const RequestIDHeader = "X-Request-ID"

type (
	remoteAddrCtxKey struct{}
	requestIDCtxKey  struct{}
)

// FromRemoteAddr retrieves the remote address from context.
func FromRemoteAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(remoteAddrCtxKey{}).(string); ok {
		return addr
	}
	return ""
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware stores the remote address and a request ID in the request context.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new header middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger.Named("header_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for header extraction.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		// Reuse a well-formed upstream request ID, otherwise mint one
		requestID := req.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(req.Context(), remoteAddrCtxKey{}, req.RemoteAddr)
		ctx = context.WithValue(ctx, requestIDCtxKey{}, requestID)

		m.logger.Debug("Request received",
			zap.String("requestID", requestID),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("addr", req.RemoteAddr))

		return next(w, req.WithContext(ctx))
	}
}
