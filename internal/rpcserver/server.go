// Package rpcserver is the cluster's HTTP transport: a fiber application
// exposing the five RPC operations plus the internal, non-recursive
// forward endpoints, fronted by recovery, request-id, and logging
// middleware in the teacher's idiom.
package rpcserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jiisanda/pandapouch/internal/health"
	"github.com/jiisanda/pandapouch/internal/metrics"
	"github.com/jiisanda/pandapouch/internal/requestid"
	"github.com/jiisanda/pandapouch/internal/rpcservice"
)

// Config holds server-level settings unrelated to routing.
type Config struct {
	ListenAddr  string
	CORSOrigins string
}

// Server is the node's fiber application.
type Server struct {
	app     *fiber.App
	config  Config
	logger  zerolog.Logger
	checker *health.Checker
}

// New constructs and wires the fiber application.
func New(cfg Config, svc *rpcservice.Service, checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             8 << 20, // 8 MiB: comfortable headroom over the spec's >=1 MiB value requirement
	})

	s := &Server{app: app, config: cfg, logger: logger.With().Str("component", "rpcserver").Logger(), checker: checker}

	s.setupMiddleware(cfg)
	s.setupRoutes(svc, checker, m)

	return s
}

func (s *Server) setupMiddleware(cfg Config) {
	s.app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.Propagate(c.Context(), c.Get(requestid.Header))
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		c.Locals("forwarded", strings.HasPrefix(c.Path(), "/internal/forward/"))
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
			AllowMethods: "GET, POST",
		}))
	}

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Bool("forwarded", c.Locals("forwarded") == true).
			Msg("rpc request")
		return c.Next()
	})
}

func (s *Server) setupRoutes(svc *rpcservice.Service, checker *health.Checker, m *metrics.Metrics) {
	s.app.Get("/healthz", adaptor.HTTPHandlerFunc(health.LivenessHandler()))
	s.app.Get("/readyz", adaptor.HTTPHandlerFunc(checker.ReadinessHandler()))
	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	h := newHandlers(svc, s.logger)
	s.app.Post("/cache/get", h.get)
	s.app.Post("/cache/put", h.put)
	s.app.Get("/cache/all", h.printAll)
	s.app.Post("/cluster/join", h.joinCluster)
	s.app.Post("/cluster/leave", h.leaveCluster)
	s.app.Post("/internal/forward/get", h.forwardGet)
	s.app.Post("/internal/forward/put", h.forwardPut)
}

// App returns the underlying fiber app (tests use app.Test()).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the server. Blocks until stopped.
func (s *Server) Listen() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("rpc server starting")
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("rpc server shutting down")
	return s.app.Shutdown()
}
