package auth

import (
	"net/http"
	"strings"

	"github.com/robalyx/tribunal/internal/auth"
	"github.com/robalyx/tribunal/internal/rest/response"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Middleware authenticates staff members from bearer tokens.
type Middleware struct {
	service *auth.Service
	logger  *zap.Logger
}

// New creates a new auth middleware.
func New(service *auth.Service, logger *zap.Logger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger.Named("auth_middleware"),
	}
}

// Require rejects requests without a valid staff token.
func (m *Middleware) Require(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		token, ok := bearerToken(req.Header)
		if !ok {
			return response.Error(w, http.StatusUnauthorized, "authentication required")
		}

		staff, err := m.service.Verify(token)
		if err != nil {
			m.logger.Debug("Rejected staff token", zap.Error(err))
			return response.Error(w, http.StatusUnauthorized, "invalid token")
		}

		return next(w, req.WithContext(auth.WithStaff(req.Context(), staff)))
	}
}

// Optional attaches the staff identity when a valid token is present.
// Requests without one continue anonymously.
func (m *Middleware) Optional(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		token, ok := bearerToken(req.Header)
		if !ok {
			return next(w, req)
		}

		staff, err := m.service.Verify(token)
		if err != nil {
			m.logger.Debug("Ignoring invalid staff token", zap.Error(err))
			return next(w, req)
		}

		return next(w, req.WithContext(auth.WithStaff(req.Context(), staff)))
	}
}

// RequireAuthority rejects staff below the given authority level.
// It must run after Require.
func (m *Middleware) RequireAuthority(level int) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			staff, ok := auth.StaffFromContext(req.Context())
			if !ok {
				return response.Error(w, http.StatusUnauthorized, "authentication required")
			}

			if staff.AuthorityLevel < level {
				m.logger.Info("Staff lacks authority",
					zap.String("userID", staff.UserID),
					zap.Int("authorityLevel", staff.AuthorityLevel),
					zap.Int("required", level))
				return response.Error(w, http.StatusForbidden, "insufficient authority")
			}

			return next(w, req)
		}
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(headers http.Header) (string, bool) {
	value := headers.Get("Authorization")
	if len(value) <= len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearerPrefix):])
	return token, token != ""
}
