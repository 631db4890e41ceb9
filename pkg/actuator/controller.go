// Package actuator moves the head servos with clamping and settle timing.
package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jarvispi/go-jarvis/internal/log"
)

// Driver is the minimal servo surface the controller needs. hal.ServoBank
// and hal.SimServoBank both satisfy it.
type Driver interface {
	SetAngle(channel int, angle float64) error
}

// Channel describes one servo and its mechanical limits in degrees.
type Channel struct {
	Name   string
	Index  int
	Min    float64
	Max    float64
	Center float64
}

type channelState struct {
	cfg      Channel
	mu       sync.Mutex
	current  float64
	lastMove time.Time
}

// Controller owns the servo channels. Moves on the same channel serialize;
// a second caller blocks until the first move's settle completes, so the
// reported position is always where the horn really is.
type Controller struct {
	driver Driver

	settleBase      time.Duration
	settlePerDegree time.Duration

	mu       sync.RWMutex
	channels map[string]*channelState

	sleep  func(context.Context, time.Duration) error
	logger interface {
		Debug(msg string, args ...any)
	}
}

// New creates a controller. Channels start at their Center position in
// software; call Home to drive the hardware there.
func New(driver Driver, settleBase, settlePerDegree time.Duration, channels ...Channel) (*Controller, error) {
	c := &Controller{
		driver:          driver,
		settleBase:      settleBase,
		settlePerDegree: settlePerDegree,
		channels:        make(map[string]*channelState, len(channels)),
		sleep:           sleepCtx,
		logger:          log.Component("actuator"),
	}
	for _, ch := range channels {
		if ch.Min > ch.Max {
			return nil, fmt.Errorf("actuator: channel %s: min %.0f > max %.0f", ch.Name, ch.Min, ch.Max)
		}
		if ch.Center < ch.Min || ch.Center > ch.Max {
			return nil, fmt.Errorf("actuator: channel %s: center %.0f outside [%.0f, %.0f]", ch.Name, ch.Center, ch.Min, ch.Max)
		}
		if _, dup := c.channels[ch.Name]; dup {
			return nil, fmt.Errorf("actuator: duplicate channel %s", ch.Name)
		}
		c.channels[ch.Name] = &channelState{cfg: ch, current: ch.Center}
	}
	return c, nil
}

// MoveTo moves the named channel to angle degrees, clamped to the channel's
// limits, and waits for the servo to settle. It returns the clamped angle
// actually commanded.
func (c *Controller) MoveTo(ctx context.Context, channel string, angle float64) (float64, error) {
	st, err := c.channel(channel)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	target := clamp(angle, st.cfg.Min, st.cfg.Max)
	delta := target - st.current
	if delta < 0 {
		delta = -delta
	}

	if err := c.driver.SetAngle(st.cfg.Index, target); err != nil {
		return 0, fmt.Errorf("actuator: move %s: %w", channel, err)
	}
	st.current = target
	st.lastMove = time.Now()
	c.logger.Debug("servo moved", "channel", channel, "angle", target)

	settle := c.settleBase + time.Duration(delta)*c.settlePerDegree
	if err := c.sleep(ctx, settle); err != nil {
		return target, err
	}
	return target, nil
}

// Home drives the named channel to its center position.
func (c *Controller) Home(ctx context.Context, channel string) (float64, error) {
	st, err := c.channel(channel)
	if err != nil {
		return 0, err
	}
	return c.MoveTo(ctx, channel, st.cfg.Center)
}

// Current reports the last commanded position of the channel.
func (c *Controller) Current(channel string) (float64, error) {
	st, err := c.channel(channel)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current, nil
}

// LastMove reports when the channel was last commanded. The zero time
// means it has not moved since startup.
func (c *Controller) LastMove(channel string) (time.Time, error) {
	st, err := c.channel(channel)
	if err != nil {
		return time.Time{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastMove, nil
}

// Limits reports the channel's configured travel.
func (c *Controller) Limits(channel string) (min, max, center float64, err error) {
	st, err := c.channel(channel)
	if err != nil {
		return 0, 0, 0, err
	}
	return st.cfg.Min, st.cfg.Max, st.cfg.Center, nil
}

func (c *Controller) channel(name string) (*channelState, error) {
	c.mu.RLock()
	st, ok := c.channels[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("actuator: unknown channel %q", name)
	}
	return st, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
