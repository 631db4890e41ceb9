// Package poller reads every sensor on a fixed interval and feeds the
// readings to the dashboard event stream and the Prometheus gauges.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/pkg/hub"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

// ReadAller supplies the snapshot. Satisfied by sensors.Manager.
type ReadAller interface {
	ReadAll() map[sensors.Kind]sensors.Reading
}

// Poller drives the periodic sensor loop.
type Poller struct {
	source   ReadAller
	events   *hub.Hub // may be nil in console mode
	interval time.Duration
	logger   *slog.Logger
}

// New creates a poller. A nil events hub disables broadcasting.
func New(source ReadAller, events *hub.Hub, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		source:   source,
		events:   events,
		interval: interval,
		logger:   log.Component("poller"),
	}
}

// Run polls until ctx is cancelled. Call it in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopped")
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	readings := p.source.ReadAll()
	if p.events != nil {
		if err := p.events.BroadcastEvent(hub.EventSensors, readings); err != nil {
			p.logger.Warn("broadcast failed", "error", err)
		}
	}
}
