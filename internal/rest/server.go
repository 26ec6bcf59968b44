package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/robalyx/tribunal/internal/auth"
	"github.com/robalyx/tribunal/internal/database"
	"github.com/robalyx/tribunal/internal/rest/handler"
	authMiddleware "github.com/robalyx/tribunal/internal/rest/middleware/auth"
	"github.com/robalyx/tribunal/internal/rest/middleware/header"
	"github.com/robalyx/tribunal/internal/rest/middleware/ip"
	"github.com/robalyx/tribunal/internal/rest/middleware/metrics"
	"github.com/robalyx/tribunal/internal/rest/middleware/ratelimit"
	"github.com/robalyx/tribunal/internal/rest/response"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	db            database.Client
	appealHandler *handler.AppealHandler
	rateLimiter   *ratelimit.Middleware
	metrics       *metrics.Metrics
	handler       http.Handler
	logger        *zap.Logger
}

// NewServer creates a new REST API server.
func NewServer(
	db database.Client, authService *auth.Service, logger *zap.Logger, config *config.APIConfig,
) *Server {
	m := metrics.New()

	server := &Server{
		db:            db,
		appealHandler: handler.NewAppealHandler(db.Service().Appeal(), m, logger),
		rateLimiter:   ratelimit.New(&config.RateLimit, logger),
		metrics:       m,
		logger:        logger.Named("rest_server"),
	}

	// Create middleware instances
	headerMiddleware := header.New(logger)
	ipMiddleware := ip.New(logger, &config.IP)
	staffAuth := authMiddleware.New(authService, logger)

	// Create base router
	router := bunrouter.New(
		bunrouter.WithNotFoundHandler(func(w http.ResponseWriter, _ bunrouter.Request) error {
			return response.Error(w, http.StatusNotFound, "not found")
		}),
		bunrouter.WithMethodNotAllowedHandler(func(w http.ResponseWriter, _ bunrouter.Request) error {
			return response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		}),
	)

	router.GET("/healthz", server.health)
	router.GET("/metrics", bunrouter.HTTPHandler(m.Handler()))

	// Create API routes group
	router.Use(
		headerMiddleware.AsRESTMiddleware,
		ipMiddleware.AsRESTMiddleware,
		m.AsRESTMiddleware,
	).WithGroup("/v1/appeals", func(g *bunrouter.Group) {
		appeals := server.appealHandler

		g.Use(server.rateLimiter.AsRESTMiddleware).POST("", appeals.SubmitAppeal)
		g.Use(staffAuth.Optional).GET("/:id", appeals.GetAppeal)

		staff := g.Use(staffAuth.Require)
		staff.GET("", appeals.ListAppeals)
		staff.GET("/stats", appeals.GetStats)
		staff.PUT("/:id", appeals.UpdateAppeal)
		staff.PATCH("/:id", appeals.UpdateAppeal)
		staff.Use(staffAuth.RequireAuthority(config.Auth.DeleteAuthority)).DELETE("/:id", appeals.CloseAppeal)
	})

	// Add gzip compression
	server.handler = gzhttp.GzipHandler(router)

	return server
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the metrics collected by the server.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Close releases background resources held by the middlewares.
func (s *Server) Close() {
	s.rateLimiter.Close()
}

// health reports whether the database is reachable.
func (s *Server) health(w http.ResponseWriter, req bunrouter.Request) error {
	if err := s.db.DB().PingContext(req.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		return response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
