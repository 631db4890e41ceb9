package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/jarvispi/go-jarvis/pkg/hub"
	"github.com/jarvispi/go-jarvis/pkg/scan"
)

// handleStatus reports uptime, connected clients and remaining quota.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	status := fiber.Map{
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"event_clients":  s.events.ClientCount(),
	}
	if s.quota != nil {
		daily, hourly := s.quota.Remaining()
		status["quota_daily_remaining"] = daily
		status["quota_hourly_remaining"] = hourly
	}
	return c.JSON(status)
}

// handleSensors returns a snapshot of every sensor.
func (s *Server) handleSensors(c *fiber.Ctx) error {
	return c.JSON(s.sensors.ReadAll())
}

// CommandRequest is the body for POST /api/command.
type CommandRequest struct {
	Text string `json:"text"`
}

// handleCommand routes one text command, exactly as if it were spoken.
func (s *Server) handleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be {\"text\": \"...\"}",
		})
	}

	resp, err := s.commander.Process(c.Context(), req.Text)
	if err != nil {
		s.logger.Error("command failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.events.BroadcastEvent(hub.EventCommand, resp)
	return c.JSON(resp)
}

// ScanRequest optionally overrides the sweep parameters.
type ScanRequest struct {
	StartAngle      float64 `json:"start_angle"`
	EndAngle        float64 `json:"end_angle"`
	Step            float64 `json:"step"`
	SamplesPerAngle int     `json:"samples_per_angle"`
}

// handleScan runs a sweep. A 409 means one is already running.
func (s *Server) handleScan(c *fiber.Ctx) error {
	var req ScanRequest
	c.BodyParser(&req) // empty body = default sweep

	res, err := s.scanner.SweepWith(c.Context(), scan.Params{
		StartAngle:      req.StartAngle,
		EndAngle:        req.EndAngle,
		Step:            req.Step,
		SamplesPerAngle: req.SamplesPerAngle,
	})
	if err != nil {
		if errors.Is(err, scan.ErrScanInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.events.BroadcastEvent(hub.EventScan, res)
	return c.JSON(res)
}

// handleLastScan returns the retained result, 404 before the first sweep.
func (s *Server) handleLastScan(c *fiber.Ctx) error {
	res := s.scanner.Last()
	if res == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no scan has run yet",
		})
	}
	return c.JSON(res)
}

// handleEventsWS attaches a dashboard client to the event hub.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)
	client.Run()
}
