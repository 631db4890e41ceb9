package sensors

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/internal/metrics"
)

// Probe interfaces implemented by the hal drivers and by test fakes.
type (
	TempHumidityProber interface {
		ProbeTempHumidity() (temp, humidity float64, err error)
	}
	DistanceProber interface {
		ProbeDistance() (cm float64, err error)
	}
	MotionProber interface {
		ProbeMotion() (bool, error)
	}
	GasProber interface {
		ProbeGas() (bool, error)
	}
)

const (
	// The DHT needs ~2s between conversions; cache inside that window.
	dhtCacheTTL = 2 * time.Second

	// How long a last-good value may stand in for a failed probe.
	staleWindow = 30 * time.Second
)

type cacheEntry struct {
	reading Reading
	at      time.Time
}

// Manager owns the sensor probes and answers reads with caching, stale
// fallback and in-flight deduplication. Nil probes mean the sensor is
// disabled in config; reads for it return a disabled reading, not an error.
type Manager struct {
	dht      TempHumidityProber
	distance DistanceProber
	motion   MotionProber
	gas      GasProber

	now func() time.Time

	mu    sync.Mutex
	cache map[Kind]cacheEntry
	last  map[Kind]cacheEntry // last good reading, for stale fallback

	flight singleflight.Group
	logger interface {
		Warn(msg string, args ...any)
	}
}

// NewManager builds a manager over the given probes. Any probe may be nil.
func NewManager(dht TempHumidityProber, distance DistanceProber, motion MotionProber, gas GasProber) *Manager {
	return &Manager{
		dht:      dht,
		distance: distance,
		motion:   motion,
		gas:      gas,
		now:      time.Now,
		cache:    make(map[Kind]cacheEntry),
		last:     make(map[Kind]cacheEntry),
		logger:   log.Component("sensors"),
	}
}

// Read returns the current reading for kind. It never returns an error to
// the caller; failures surface as invalid readings with a Reason.
func (m *Manager) Read(kind Kind) Reading {
	if !m.enabled(kind) {
		metrics.SensorReads.WithLabelValues(string(kind), "disabled").Inc()
		return Reading{Kind: kind, Unit: unitFor(kind), Timestamp: m.now(), Reason: ReasonDisabled}
	}

	if ttl := m.ttl(kind); ttl > 0 {
		if r, ok := m.cached(kind, ttl); ok {
			metrics.CacheHits.WithLabelValues(string(kind)).Inc()
			return r
		}
	}

	// Temperature and humidity come from one physical conversion; collapse
	// concurrent readers of either onto a single probe.
	v, _, _ := m.flight.Do(m.flightKey(kind), func() (any, error) {
		return m.probe(kind), nil
	})
	readings := v.(map[Kind]Reading)

	r, ok := readings[kind]
	if !ok {
		// Shared flight resolved for the sibling kind only; should not
		// happen, but answer something sane.
		return Reading{Kind: kind, Unit: unitFor(kind), Timestamp: m.now(), Reason: ReasonFailed}
	}
	return r
}

// ReadAll reads every enabled sensor and returns the results keyed by kind.
// Disabled sensors are included as disabled readings so callers see the
// full picture.
func (m *Manager) ReadAll() map[Kind]Reading {
	out := make(map[Kind]Reading, len(Kinds))
	for _, kind := range Kinds {
		out[kind] = m.Read(kind)
	}
	return out
}

func (m *Manager) enabled(kind Kind) bool {
	switch kind {
	case KindTemperature, KindHumidity:
		return m.dht != nil
	case KindDistance:
		return m.distance != nil
	case KindMotion:
		return m.motion != nil
	case KindGas:
		return m.gas != nil
	}
	return false
}

func (m *Manager) ttl(kind Kind) time.Duration {
	switch kind {
	case KindTemperature, KindHumidity:
		return dhtCacheTTL
	}
	return 0
}

func (m *Manager) flightKey(kind Kind) string {
	switch kind {
	case KindTemperature, KindHumidity:
		return "dht"
	}
	return string(kind)
}

func (m *Manager) cached(kind Kind, ttl time.Duration) (Reading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.cache[kind]
	if !ok || m.now().Sub(e.at) >= ttl {
		return Reading{}, false
	}
	return e.reading, true
}

// probe performs the hardware read for kind and returns readings for every
// kind the probe produced (both temperature and humidity for the DHT).
func (m *Manager) probe(kind Kind) map[Kind]Reading {
	now := m.now()
	switch kind {
	case KindTemperature, KindHumidity:
		temp, hum, err := m.dht.ProbeTempHumidity()
		if err != nil {
			return map[Kind]Reading{
				KindTemperature: m.fallback(KindTemperature, err),
				KindHumidity:    m.fallback(KindHumidity, err),
			}
		}
		t := Reading{Kind: KindTemperature, Value: temp, Unit: unitFor(KindTemperature), Timestamp: now, Valid: true}
		h := Reading{Kind: KindHumidity, Value: hum, Unit: unitFor(KindHumidity), Timestamp: now, Valid: true}
		m.store(t)
		m.store(h)
		return map[Kind]Reading{KindTemperature: t, KindHumidity: h}

	case KindDistance:
		cm, err := m.distance.ProbeDistance()
		if err != nil {
			return map[Kind]Reading{kind: m.failed(kind, err)}
		}
		r := Reading{Kind: kind, Value: cm, Unit: unitFor(kind), Timestamp: now, Valid: true}
		m.store(r)
		return map[Kind]Reading{kind: r}

	case KindMotion:
		on, err := m.motion.ProbeMotion()
		if err != nil {
			return map[Kind]Reading{kind: m.failed(kind, err)}
		}
		r := Reading{Kind: kind, Value: boolValue(on), Timestamp: now, Valid: true}
		m.store(r)
		return map[Kind]Reading{kind: r}

	case KindGas:
		on, err := m.gas.ProbeGas()
		if err != nil {
			return map[Kind]Reading{kind: m.failed(kind, err)}
		}
		r := Reading{Kind: kind, Value: boolValue(on), Timestamp: now, Valid: true}
		m.store(r)
		return map[Kind]Reading{kind: r}
	}
	return map[Kind]Reading{kind: {Kind: kind, Timestamp: now, Reason: ReasonFailed}}
}

func (m *Manager) store(r Reading) {
	metrics.SensorReads.WithLabelValues(string(r.Kind), "ok").Inc()
	metrics.SensorValue.WithLabelValues(string(r.Kind), r.Unit).Set(r.Value)
	m.mu.Lock()
	e := cacheEntry{reading: r, at: r.Timestamp}
	m.cache[r.Kind] = e
	m.last[r.Kind] = e
	m.mu.Unlock()
}

// fallback answers a DHT probe failure: the last good reading if it is
// still inside the staleness window, otherwise an invalid reading. Only
// temperature and humidity get this treatment; a climate value from half a
// minute ago is still the climate, a distance from the last head position
// is not the distance.
func (m *Manager) fallback(kind Kind, err error) Reading {
	m.logger.Warn("sensor probe failed", "kind", kind, "error", fmt.Sprint(err))

	m.mu.Lock()
	e, ok := m.last[kind]
	m.mu.Unlock()

	if ok && m.now().Sub(e.at) < staleWindow {
		metrics.SensorReads.WithLabelValues(string(kind), "stale-cache").Inc()
		r := e.reading
		r.Reason = ReasonStaleCache
		return r
	}
	metrics.SensorReads.WithLabelValues(string(kind), "failed").Inc()
	return Reading{Kind: kind, Unit: unitFor(kind), Timestamp: m.now(), Reason: ReasonFailed}
}

// failed reports a probe failure immediately. Distance, motion and gas
// never stand in stale values; their consumers need the truth right now.
func (m *Manager) failed(kind Kind, err error) Reading {
	metrics.SensorReads.WithLabelValues(string(kind), "failed").Inc()
	m.logger.Warn("sensor probe failed", "kind", kind, "error", fmt.Sprint(err))
	return Reading{Kind: kind, Unit: unitFor(kind), Timestamp: m.now(), Reason: ReasonFailed}
}

func boolValue(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
