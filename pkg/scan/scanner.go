package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/internal/metrics"
	"github.com/jarvispi/go-jarvis/pkg/display"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

// ErrScanInProgress is returned when a sweep is requested while another
// sweep is running.
var ErrScanInProgress = errors.New("scan: sweep already in progress")

// retriesPerAngle is how many extra measurements are attempted at an angle
// after the first batch comes back with no valid sample.
const retriesPerAngle = 2

// Mover points the distance sensor. Satisfied by the actuator controller
// through a thin adapter in cmd, and by fakes in tests.
type Mover interface {
	MoveTo(ctx context.Context, channel string, angle float64) (float64, error)
	Home(ctx context.Context, channel string) (float64, error)
}

// SensorSource supplies distance readings.
type SensorSource interface {
	Read(kind sensors.Kind) sensors.Reading
}

// Params shape one sweep. Zero values fall back to the scanner defaults.
type Params struct {
	StartAngle      float64
	EndAngle        float64
	Step            float64
	SamplesPerAngle int
}

// Options configure a Scanner.
type Options struct {
	Channel         string
	StartAngle      float64
	EndAngle        float64
	Step            float64
	SamplesPerAngle int
	Settle          time.Duration
	BlockedBelowCM  float64
}

// Scanner performs sweeps. Only one sweep runs at a time; the last
// completed result is retained for later queries.
type Scanner struct {
	mover   Mover
	source  SensorSource
	notify  display.Notifier
	opts    Options
	logger  *slog.Logger
	running sync.Mutex

	mu   sync.RWMutex
	last *Result
}

// New creates a scanner. A nil notifier disables display updates.
func New(mover Mover, source SensorSource, notify display.Notifier, opts Options) *Scanner {
	if notify == nil {
		notify = display.Nop{}
	}
	return &Scanner{mover: mover, source: source, notify: notify, opts: opts, logger: log.Component("scan")}
}

// Sweep runs one scan with the default parameters.
func (s *Scanner) Sweep(ctx context.Context) (*Result, error) {
	return s.SweepWith(ctx, Params{})
}

// SweepWith runs one scan with custom parameters. Zero fields take the
// configured defaults. The head is recentered when the sweep ends, whether
// it completed, failed or was cancelled.
func (s *Scanner) SweepWith(ctx context.Context, p Params) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.running.Unlock()

	p = s.fill(p)
	if err := validate(p); err != nil {
		return nil, err
	}

	res := &Result{StartedAt: time.Now()}
	s.notify.WriteLine(0, 0, "Scanning...")
	defer func() {
		// Recenter regardless of how the sweep ended. Use a fresh context
		// so cancellation of the sweep does not strand the head sideways.
		home, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.mover.Home(home, s.opts.Channel); err != nil {
			s.logger.Info("recenter failed", "error", err)
		}
		s.notify.Clear()
	}()

	// Index the angles instead of accumulating the step so a fractional
	// step cannot drift past the final angle.
	steps := int(math.Floor((p.EndAngle-p.StartAngle)/p.Step + 1e-9))
	for i := 0; i <= steps; i++ {
		angle := p.StartAngle + float64(i)*p.Step
		select {
		case <-ctx.Done():
			res.Aborted = true
			s.finish(res)
			metrics.Scans.WithLabelValues("aborted").Inc()
			return res, nil
		default:
		}

		if _, err := s.mover.MoveTo(ctx, s.opts.Channel, angle); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.Aborted = true
				s.finish(res)
				metrics.Scans.WithLabelValues("aborted").Inc()
				return res, nil
			}
			metrics.Scans.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("scan: move to %.0f: %w", angle, err)
		}

		if s.opts.Settle > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.Settle):
			}
		}

		sample := s.measure(angle, p.SamplesPerAngle)
		res.Samples = append(res.Samples, sample)
		s.notify.WriteLine(1, 0, fmt.Sprintf("%3.0f: %5.1fcm", angle, sample.ClearanceCM))
		s.logger.Debug("scan sample", "angle", angle, "clearance_cm", sample.ClearanceCM, "failed", sample.Failed)
	}

	s.finish(res)
	metrics.Scans.WithLabelValues("ok").Inc()
	metrics.ScanDuration.Observe(res.CompletedAt.Sub(res.StartedAt).Seconds())
	s.logger.Info("scan complete",
		"samples", len(res.Samples),
		"blocked", len(res.BlockedAngles),
		"best_angle", res.BestAngle,
		"best_clearance_cm", res.BestClearanceCM)
	return res, nil
}

// Last returns the most recent result, or nil when no sweep has run.
func (s *Scanner) Last() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// measure takes SamplesPerAngle readings at the current position and
// reduces them to one clearance via the median. If no reading is valid it
// retries, and after the retries gives up with a failed, zero-clearance
// sample.
func (s *Scanner) measure(angle float64, samplesPer int) Sample {
	for attempt := 0; attempt <= retriesPerAngle; attempt++ {
		var vals []float64
		for i := 0; i < samplesPer; i++ {
			r := s.source.Read(sensors.KindDistance)
			if r.Valid {
				vals = append(vals, r.Value)
			}
		}
		if len(vals) > 0 {
			return Sample{Angle: angle, ClearanceCM: median(vals)}
		}
	}
	return Sample{Angle: angle, Failed: true}
}

// finish derives the aggregate fields and stores the result as Last.
func (s *Scanner) finish(res *Result) {
	res.CompletedAt = time.Now()

	best := -1.0
	for _, smp := range res.Samples {
		if smp.ClearanceCM < s.opts.BlockedBelowCM {
			res.BlockedAngles = append(res.BlockedAngles, smp.Angle)
		}
		if smp.ClearanceCM > best {
			best = smp.ClearanceCM
			res.BestAngle = smp.Angle
		}
	}
	if best >= 0 {
		res.BestClearanceCM = best
	}
	res.FullyBlocked = len(res.Samples) > 0 && len(res.BlockedAngles) == len(res.Samples)

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
}

func (s *Scanner) fill(p Params) Params {
	if p.StartAngle == 0 && p.EndAngle == 0 {
		p.StartAngle = s.opts.StartAngle
		p.EndAngle = s.opts.EndAngle
	}
	if p.Step == 0 {
		p.Step = s.opts.Step
	}
	if p.SamplesPerAngle == 0 {
		p.SamplesPerAngle = s.opts.SamplesPerAngle
	}
	return p
}

func validate(p Params) error {
	if p.StartAngle > p.EndAngle {
		return fmt.Errorf("scan: start angle %.0f past end angle %.0f", p.StartAngle, p.EndAngle)
	}
	if p.Step <= 0 {
		return fmt.Errorf("scan: step must be positive, got %.0f", p.Step)
	}
	if p.SamplesPerAngle < 1 {
		return fmt.Errorf("scan: samples per angle must be at least 1, got %d", p.SamplesPerAngle)
	}
	return nil
}
