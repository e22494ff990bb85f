package api

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/spectralworks/specmatch/api/worker"
	"github.com/spectralworks/specmatch/pkg/archive"
	"github.com/spectralworks/specmatch/pkg/metrics"
)

// Server is the API server for submitting and querying scoring runs
type Server struct {
	config  Config
	archive archive.Driver
	pool    *worker.Pool
	metrics *metrics.Metrics
	log     *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The archive driver and worker pool are injected to allow sharing with
// other components (e.g., a CLI run executing in the same process).
func NewServer(config Config, driver archive.Driver, pool *worker.Pool, m *metrics.Metrics, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		archive: driver,
		pool:    pool,
		metrics: m,
		log:     log,
		app:     app,
	}

	if m != nil {
		app.Use(s.recordHTTPMetrics)
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	app.Get("/ping", s.handlePing)
	app.Post("/runs", s.handleSubmitRun)
	app.Get("/runs", s.handleListRuns)
	app.Get("/runs/:id", s.handleGetRun)
	app.Get("/runs/:id/scores", s.handleGetRunScores)
	app.Post("/workflow/check", s.handleCheckWorkflow)

	return s
}

// recordHTTPMetrics observes every request except the scrape endpoint
// itself. The route pattern (e.g. /runs/:id) labels the series so run IDs
// don't explode cardinality.
func (s *Server) recordHTTPMetrics(c *fiber.Ctx) error {
	if c.Path() == "/metrics" {
		return c.Next()
	}

	s.metrics.HTTPRequestsInFlight.Inc()
	started := time.Now()
	err := c.Next()
	s.metrics.HTTPRequestsInFlight.Dec()

	method := c.Method()
	path := c.Route().Path
	status := strconv.Itoa(c.Response().StatusCode())

	s.metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	s.metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(started).Seconds())

	return err
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.log.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
