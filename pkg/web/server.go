// Package web serves the dashboard API and the live event stream.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/internal/metrics"
	"github.com/jarvispi/go-jarvis/pkg/command"
	"github.com/jarvispi/go-jarvis/pkg/hub"
	"github.com/jarvispi/go-jarvis/pkg/scan"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

// Commander routes text commands. Satisfied by command.Router.
type Commander interface {
	Process(ctx context.Context, text string) (*command.Response, error)
}

// SensorReader exposes current readings. Satisfied by sensors.Manager.
type SensorReader interface {
	ReadAll() map[sensors.Kind]sensors.Reading
}

// ScanRunner triggers and recalls sweeps. Satisfied by scan.Scanner.
type ScanRunner interface {
	SweepWith(ctx context.Context, p scan.Params) (*scan.Result, error)
	Last() *scan.Result
}

// Quota reports remaining API budget for the status endpoint.
type Quota interface {
	Remaining() (daily, hourly int)
}

// Server is the dashboard HTTP server.
type Server struct {
	app  *fiber.App
	port string

	commander Commander
	sensors   SensorReader
	scanner   ScanRunner
	quota     Quota

	events  *hub.Hub
	started time.Time
	logger  *slog.Logger
}

// NewServer wires the API. quota may be nil when no online backend exists.
func NewServer(port string, commander Commander, sensorReader SensorReader, scanner ScanRunner, quota Quota) *Server {
	s := &Server{
		port:      port,
		commander: commander,
		sensors:   sensorReader,
		scanner:   scanner,
		quota:     quota,
		events:    hub.New("events"),
		started:   time.Now(),
		logger:    log.Component("web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Jarvis Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sensors", s.handleSensors)
	api.Post("/command", s.handleCommand)
	api.Post("/scan", s.handleScan)
	api.Get("/scan/last", s.handleLastScan)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Events returns the hub that streams to dashboard clients. The poller
// publishes sensor snapshots through it.
func (s *Server) Events() *hub.Hub {
	return s.events
}

// Start runs the event hub and blocks serving HTTP.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	s.events.BroadcastEvent(hub.EventShutdown, nil)
	return s.app.Shutdown()
}
