// Package api provides the JSON-RPC 2.0 and REST boundary of the Analysis
// Orchestration Core (spec.md §6): both presentations delegate to the same
// pkg/audit.Coordinator methods, mirroring the teacher's Echo v5 server
// shape.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miesc-dev/miesc/pkg/audit"
	"github.com/miesc-dev/miesc/pkg/bus"
	"github.com/miesc-dev/miesc/pkg/tool"
)

// Server is the JSON-RPC/REST API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	coordinator *audit.Coordinator
	registry    *tool.Registry
	bus         *bus.Bus
	rpc         *rpcDispatcher

	startedAt time.Time
	metrics   MetricsResult
}

// NewServer creates a new API server with Echo v5, wiring the JSON-RPC
// dispatcher and both presentations' routes over coordinator.
func NewServer(coordinator *audit.Coordinator, registry *tool.Registry, b *bus.Bus, metrics MetricsResult) *Server {
	e := echo.New()

	s := &Server{
		echo:        e,
		coordinator: coordinator,
		registry:    registry,
		bus:         b,
		startedAt:   time.Now(),
		metrics:     metrics,
	}

	s.rpc = newRPCDispatcher()
	s.rpc.register("capabilities", s.handleCapabilities)
	s.rpc.register("status", s.handleStatus)
	s.rpc.register("run_audit", s.handleRunAudit)
	s.rpc.register("get_audit", s.handleGetAudit)
	s.rpc.register("cancel_audit", s.handleCancelAudit)
	s.rpc.register("get_metrics", s.handleGetMetrics)
	s.rpc.register("policy_audit", s.handlePolicyAudit)

	s.setupRoutes()
	return s
}

// setupRoutes registers every route: the JSON-RPC envelope, its REST mirror
// (spec.md §6.2: "mirrors the JSON-RPC methods one-to-one"), the event
// stream, health, and metrics.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/rpc", s.rpcHandler)

	mcpGroup := s.echo.Group("/mcp")
	mcpGroup.GET("/capabilities", s.restHandler(s.handleCapabilities))
	mcpGroup.GET("/status", s.restHandler(s.handleStatus))
	mcpGroup.GET("/get_metrics", s.restHandler(s.handleGetMetrics))
	mcpGroup.POST("/run_audit", s.restHandler(s.handleRunAudit))
	mcpGroup.POST("/cancel_audit", s.restHandler(s.handleCancelAudit))
	mcpGroup.GET("/audits/:audit_id", s.restHandler(s.handleGetAudit))
	mcpGroup.POST("/policy_audit", s.restHandler(s.handlePolicyAudit))

	mcpGroup.GET("/events/:audit_id", s.eventsHandler)
}

// restHandler adapts an rpcMethod into a plain echo.HandlerFunc: params come
// from the request body on POST routes (the same JSON body run_audit's
// JSON-RPC form would carry) or are left empty on GET routes, where the
// handler reads path/query params itself (handleGetAudit, handleCancelAudit).
// An error is translated to its REST status via aocerrors.Kind rather than
// always answering 200, unlike the JSON-RPC envelope which always returns
// 200 with an error object.
func (s *Server) restHandler(m rpcMethod) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var raw []byte
		if c.Request().Method == http.MethodPost {
			body, err := readAll(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
			}
			raw = body
		}

		result, err := m(c, raw)
		if err != nil {
			return restError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// Start starts the HTTP server on the given address (non-blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// UseCORS enables CORS for the given allowed origins. No-op when origins is
// empty (the default: same-origin only). Must be called before Start/
// StartWithListener.
func (s *Server) UseCORS(origins []string) {
	if len(origins) == 0 {
		return
	}
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
	}))
}
