// Package telemetry publishes sensor snapshots to an MQTT broker so home
// automation can react to the robot's readings. The connection uses
// autopaho for automatic reconnection, with a will message flipping the
// availability topic to "offline" on unexpected disconnects.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

// Source provides the readings to publish. Satisfied by sensors.Manager.
type Source interface {
	ReadAll() map[sensors.Kind]sensors.Reading
}

// Config for the MQTT publisher.
type Config struct {
	Broker     string // e.g. mqtt://broker.local:1883
	Username   string
	Password   string
	DeviceName string        // topic segment, e.g. "jarvis"
	Interval   time.Duration // how often to publish a snapshot
}

// Publisher pushes periodic sensor snapshots to the broker.
type Publisher struct {
	cfg    Config
	source Source
	cm     *autopaho.ConnectionManager
	logger *slog.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(cfg Config, source Source) *Publisher {
	if cfg.DeviceName == "" {
		cfg.DeviceName = "jarvis"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Publisher{cfg: cfg, source: source, logger: log.Component("telemetry")}
}

// Start connects to the broker and runs the publish loop until ctx is
// cancelled. On every (re-)connect it announces availability "online".
func (p *Publisher) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(p.cfg.Broker)
	if err != nil {
		return fmt.Errorf("telemetry: parse broker URL: %w", err)
	}

	availTopic := p.topic("availability")

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: p.cfg.Username,
		ConnectPassword: []byte(p.cfg.Password),
		WillMessage: &paho.WillMessage{
			Topic:   availTopic,
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Info("connected to broker", "broker", p.cfg.Broker)
			p.publishRetained(ctx, cm, availTopic, []byte("online"))
		},
		OnConnectError: func(err error) {
			p.logger.Warn("broker connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "jarvis-" + p.cfg.DeviceName,
		},
	}
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("telemetry: connect: %w", err)
	}
	p.cm = cm

	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		// autopaho keeps retrying in the background.
		p.logger.Warn("initial connection timed out, retrying in background", "error", err)
	}

	p.run(ctx)
	return nil
}

// Stop announces "offline" and disconnects.
func (p *Publisher) Stop(ctx context.Context) error {
	if p.cm == nil {
		return nil
	}
	p.publishRetained(ctx, p.cm, p.topic("availability"), []byte("offline"))
	return p.cm.Disconnect(ctx)
}

func (p *Publisher) run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishSnapshot(ctx)
		}
	}
}

// publishSnapshot pushes the full JSON snapshot plus one plain-value
// topic per valid reading, which automations can consume directly.
func (p *Publisher) publishSnapshot(ctx context.Context) {
	readings := p.source.ReadAll()

	payload, err := json.Marshal(readings)
	if err != nil {
		p.logger.Error("marshal snapshot", "error", err)
		return
	}
	p.publish(ctx, p.topic("sensors"), payload)

	for kind, r := range readings {
		if !r.Valid {
			continue
		}
		p.publish(ctx, p.topic(string(kind)), []byte(fmt.Sprintf("%g", r.Value)))
	}
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte) {
	if _, err := p.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     1,
	}); err != nil {
		p.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

func (p *Publisher) publishRetained(ctx context.Context, cm *autopaho.ConnectionManager, topic string, payload []byte) {
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     1,
		Retain:  true,
	}); err != nil {
		p.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

func (p *Publisher) topic(suffix string) string {
	return "jarvis/" + p.cfg.DeviceName + "/" + suffix
}
