package sensors

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDHT struct {
	mu    sync.Mutex
	calls int
	temp  float64
	hum   float64
	err   error
}

func (f *fakeDHT) ProbeTempHumidity() (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.temp, f.hum, f.err
}

func (f *fakeDHT) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDistance struct {
	calls atomic.Int64
	cm    float64
	err   error
}

func (f *fakeDistance) ProbeDistance() (float64, error) {
	f.calls.Add(1)
	return f.cm, f.err
}

func newTestManager(dht TempHumidityProber, dist DistanceProber) (*Manager, *time.Time) {
	m := NewManager(dht, dist, nil, nil)
	now := time.Now()
	m.now = func() time.Time { return now }
	return m, &now
}

func TestReadTemperature(t *testing.T) {
	dht := &fakeDHT{temp: 24.5, hum: 51}
	m, _ := newTestManager(dht, nil)

	r := m.Read(KindTemperature)
	if !r.Valid {
		t.Fatalf("expected valid reading, got reason %q", r.Reason)
	}
	if r.Value != 24.5 {
		t.Errorf("temperature = %v, want 24.5", r.Value)
	}
	if r.Unit != "celsius" {
		t.Errorf("unit = %q, want celsius", r.Unit)
	}
}

func TestDHTCacheWithinTTL(t *testing.T) {
	dht := &fakeDHT{temp: 22, hum: 40}
	m, now := newTestManager(dht, nil)

	m.Read(KindTemperature)
	m.Read(KindTemperature)
	if got := dht.callCount(); got != 1 {
		t.Fatalf("probe called %d times inside TTL, want 1", got)
	}

	// Humidity comes from the same conversion, so it is cached too.
	h := m.Read(KindHumidity)
	if !h.Valid || h.Value != 40 {
		t.Fatalf("humidity from cache = %+v", h)
	}
	if got := dht.callCount(); got != 1 {
		t.Fatalf("probe called %d times for cached humidity, want 1", got)
	}

	// Past the TTL a new conversion happens.
	*now = now.Add(3 * time.Second)
	m.Read(KindTemperature)
	if got := dht.callCount(); got != 2 {
		t.Fatalf("probe called %d times after TTL expiry, want 2", got)
	}
}

func TestDistanceNeverCached(t *testing.T) {
	dist := &fakeDistance{cm: 87}
	m, _ := newTestManager(nil, dist)

	m.Read(KindDistance)
	m.Read(KindDistance)
	if got := dist.calls.Load(); got != 2 {
		t.Fatalf("distance probed %d times, want 2", got)
	}
}

func TestStaleFallbackAfterFailure(t *testing.T) {
	dht := &fakeDHT{temp: 21, hum: 55}
	m, now := newTestManager(dht, nil)

	m.Read(KindTemperature)

	// Probe starts failing; inside the stale window the old value stands in.
	dht.mu.Lock()
	dht.err = errors.New("checksum mismatch")
	dht.mu.Unlock()
	*now = now.Add(5 * time.Second)

	r := m.Read(KindTemperature)
	if !r.Valid {
		t.Fatalf("expected stale reading to stay valid, got %+v", r)
	}
	if r.Reason != ReasonStaleCache {
		t.Errorf("reason = %q, want %q", r.Reason, ReasonStaleCache)
	}
	if r.Value != 21 {
		t.Errorf("stale value = %v, want 21", r.Value)
	}

	// Outside the window the failure is reported.
	*now = now.Add(time.Minute)
	r = m.Read(KindTemperature)
	if r.Valid {
		t.Fatalf("expected invalid reading past stale window, got %+v", r)
	}
	if r.Reason != ReasonFailed {
		t.Errorf("reason = %q, want %q", r.Reason, ReasonFailed)
	}
}

func TestDistanceFailureNeverServesStale(t *testing.T) {
	dist := &fakeDistance{cm: 42}
	m, now := newTestManager(nil, dist)

	r := m.Read(KindDistance)
	if !r.Valid || r.Value != 42 {
		t.Fatalf("priming read = %+v", r)
	}

	// The echo fails on the very next read. The 42 from a moment ago
	// belongs to wherever the head was pointing then; it must not come back.
	dist.err = errors.New("echo timeout")
	*now = now.Add(time.Second)

	r = m.Read(KindDistance)
	if r.Valid {
		t.Fatalf("failed distance read came back valid: %+v", r)
	}
	if r.Reason != ReasonFailed {
		t.Errorf("reason = %q, want %q", r.Reason, ReasonFailed)
	}
	if r.Reason == ReasonStaleCache {
		t.Error("distance must never serve the stale cache")
	}
}

func TestGasFailureNeverServesStale(t *testing.T) {
	gas := &fakeGas{on: true}
	m := NewManager(nil, nil, nil, gas)

	if r := m.Read(KindGas); !r.Valid || !r.Bool() {
		t.Fatalf("priming read = %+v", r)
	}

	gas.err = errors.New("pin read failed")
	r := m.Read(KindGas)
	if r.Valid || r.Reason != ReasonFailed {
		t.Fatalf("failed gas read = %+v, want invalid/failed", r)
	}
}

type fakeGas struct {
	on  bool
	err error
}

func (f *fakeGas) ProbeGas() (bool, error) { return f.on, f.err }

func TestDisabledSensor(t *testing.T) {
	m, _ := newTestManager(nil, nil)

	r := m.Read(KindDistance)
	if r.Valid {
		t.Fatal("disabled sensor reported a valid reading")
	}
	if r.Reason != ReasonDisabled {
		t.Errorf("reason = %q, want %q", r.Reason, ReasonDisabled)
	}
}

func TestConcurrentReadsCollapse(t *testing.T) {
	slow := &slowDHT{temp: 23, hum: 44}
	m := NewManager(slow, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := m.Read(KindTemperature)
			if !r.Valid {
				t.Errorf("concurrent read invalid: %+v", r)
			}
		}()
	}
	wg.Wait()

	if got := slow.calls.Load(); got != 1 {
		t.Fatalf("probe called %d times under concurrent reads, want 1", got)
	}
}

type slowDHT struct {
	calls atomic.Int64
	temp  float64
	hum   float64
}

func (s *slowDHT) ProbeTempHumidity() (float64, float64, error) {
	s.calls.Add(1)
	time.Sleep(50 * time.Millisecond)
	return s.temp, s.hum, nil
}

func TestReadAllIncludesEveryKind(t *testing.T) {
	dht := &fakeDHT{temp: 20, hum: 50}
	dist := &fakeDistance{err: errors.New("echo timeout")}
	m := NewManager(dht, dist, nil, nil)

	all := m.ReadAll()
	if len(all) != len(Kinds) {
		t.Fatalf("ReadAll returned %d kinds, want %d", len(all), len(Kinds))
	}
	if !all[KindTemperature].Valid {
		t.Error("temperature should be valid")
	}
	if all[KindDistance].Valid {
		t.Error("failed distance should be invalid")
	}
	if all[KindDistance].Reason != ReasonFailed {
		t.Errorf("distance reason = %q", all[KindDistance].Reason)
	}
	if all[KindMotion].Reason != ReasonDisabled {
		t.Errorf("motion reason = %q, want disabled", all[KindMotion].Reason)
	}
}
