package hal

import (
	"math/rand"
	"sync"
)

// Simulated drivers for running on a dev machine without GPIO. Selected by
// the `simulate` config flag; readings are random but plausible.

// SimDHT fakes a temperature/humidity sensor.
type SimDHT struct{}

func (SimDHT) ProbeTempHumidity() (float64, float64, error) {
	return 20 + rand.Float64()*8, 35 + rand.Float64()*30, nil
}

// SimUltrasonic fakes a distance sensor.
type SimUltrasonic struct{}

func (SimUltrasonic) ProbeDistance() (float64, error) {
	return 5 + rand.Float64()*195, nil
}

// SimPIR fakes a motion sensor that occasionally trips.
type SimPIR struct{}

func (SimPIR) ProbeMotion() (bool, error) {
	return rand.Intn(10) == 0, nil
}

// SimGas fakes a gas sensor that stays clear.
type SimGas struct{}

func (SimGas) ProbeGas() (bool, error) {
	return false, nil
}

// SimServoBank fakes the servo bank and remembers the last commanded angle
// per channel.
type SimServoBank struct {
	mu     sync.Mutex
	angles map[int]float64
}

func NewSimServoBank() *SimServoBank {
	return &SimServoBank{angles: make(map[int]float64)}
}

func (s *SimServoBank) SetAngle(channel int, angle float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angles[channel] = angle
	return nil
}

// Angle returns the last commanded angle for a channel.
func (s *SimServoBank) Angle(channel int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angles[channel]
}

func (s *SimServoBank) Close() error { return nil }
