// Package server exposes the lab's dispatcher and snippet store over HTTP
// and WebSocket for the browser editors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/Norgate-AV/labrun/internal/dispatch"
	"github.com/Norgate-AV/labrun/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server
type Options struct {
	// Addr is the listen address used by Run
	Addr string

	// ProbeSchedule is a cron spec for the probe and prune job; empty disables it
	ProbeSchedule string

	Logger *log.Logger
}

// Server is the lab HTTP API
type Server struct {
	dispatcher *dispatch.Dispatcher
	snippets   *store.Store
	logger     *log.Logger
	addr       string
	schedule   string
	engine     *gin.Engine
}

// New builds the server and its routes. snippets may be nil, in which case
// the file routes answer 503.
func New(d *dispatch.Dispatcher, snippets *store.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		dispatcher: d,
		snippets:   snippets,
		logger:     logger,
		addr:       opts.Addr,
		schedule:   opts.ProbeSchedule,
	}

	s.engine = s.routes()

	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	route := gin.New()
	route.Use(gin.Recovery(), s.requestLogger())

	route.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	api := route.Group("/api")
	api.GET("/languages", s.handleLanguages)
	api.POST("/execute", s.handleExecute)
	api.GET("/status", s.handleStatus)
	api.GET("/probe", s.handleProbe)

	files := api.Group("/files")
	files.GET("", s.handleListFiles)
	files.GET("/:name", s.handleGetFile)
	files.PUT("/:name", s.handleSaveFile)
	files.DELETE("/:name", s.handleDeleteFile)

	route.GET("/ws", s.handleWebSocket)

	return route
}

// requestLogger logs each request through charmbracelet/log
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. The periodic
// probe job runs for the lifetime of the server.
func (s *Server) Run(ctx context.Context) error {
	scheduler, err := s.startScheduler(ctx)
	if err != nil {
		return err
	}

	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Lab server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)

	case <-ctx.Done():
		s.logger.Info("Shutting down lab server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	}
}

// startScheduler registers the probe and prune job. It returns nil when no
// schedule is configured.
func (s *Server) startScheduler(ctx context.Context) (*cron.Cron, error) {
	if s.schedule == "" {
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.maintain(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid probe schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Debug("Probe job scheduled", "schedule", s.schedule)

	return c, nil
}

// maintain prunes expired cache entries and records endpoint reachability
func (s *Server) maintain(ctx context.Context) {
	s.dispatcher.Cache().Prune()

	probe := s.dispatcher.Probe(ctx)
	s.logger.Info("API status",
		"primary", probe.Primary,
		"fallback", probe.Fallback,
		"cache", s.dispatcher.Cache().Len(),
	)
}
