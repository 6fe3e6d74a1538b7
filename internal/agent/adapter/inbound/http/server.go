package http_handler

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/config"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the operator-facing status API of one agent.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service port.AgentService
}

func NewServer(cfg *config.Config, service port.AgentService) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	v1.Get("/state", s.handleState)
	v1.Get("/report", s.handleReport)
	v1.Post("/iterations", s.handleRunOnce)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.HTTPAddr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"phase":  s.service.Phase(),
	})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.service.LocalState())
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	report, ok := s.service.LastReport()
	if !ok {
		return s.sendJSONError(c, fiber.StatusNotFound, "No iteration has completed yet")
	}
	return c.JSON(report)
}

// handleRunOnce triggers an iteration outside the regular schedule.
func (s *Server) handleRunOnce(c *fiber.Ctx) error {
	report, err := s.service.RunOnce(c.Context())
	if errors.Is(err, port.ErrIterationInProgress) {
		return s.sendJSONError(c, fiber.StatusConflict, err.Error())
	}
	if err != nil {
		sdklogger.Warnw("Triggered iteration aborted", "iteration_id", report.IterationID, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.JSON(report)
}
