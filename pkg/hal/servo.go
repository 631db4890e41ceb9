package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
)

// Servo pulse range in PCA9685 duty units at 50Hz on the 12-bit counter.
// 102 ≈ 0.5ms, 491 ≈ 2.4ms — the usual safe envelope for hobby servos.
// Servos that bind or buzz at the extremes want a narrower range.
const (
	servoMinDuty gpio.Duty = 102
	servoMaxDuty gpio.Duty = 491
)

// ServoBank drives hobby servos through a PCA9685 PWM controller.
// One bank owns the I2C device; channels are addressed by index.
type ServoBank struct {
	bus   i2c.BusCloser
	group *pca9685.ServoGroup

	mu sync.Mutex
}

// NewServoBank opens the I2C bus (empty name = first available) and
// configures the PCA9685 at the given address for servo pulses.
func NewServoBank(busName string, address uint16) (*ServoBank, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("hal: open i2c bus: %w", err)
	}

	dev, err := pca9685.NewI2C(bus, address)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("hal: pca9685 init: %w", err)
	}
	if err := dev.SetPwmFreq(50 * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("hal: pca9685 pwm freq: %w", err)
	}

	group := pca9685.NewServoGroup(dev, servoMinDuty, servoMaxDuty, 0, 180*physic.Degree)
	return &ServoBank{bus: bus, group: group}, nil
}

// SetAngle commands the servo on the given channel to angle degrees.
// The caller is responsible for clamping; this layer only converts units.
func (s *ServoBank) SetAngle(channel int, angle float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	servo := s.group.GetServo(channel)
	return servo.SetAngle(physic.Angle(angle * float64(physic.Degree)))
}

// Close releases the I2C bus.
func (s *ServoBank) Close() error {
	return s.bus.Close()
}
