// Package hal contains the hardware drivers for the robot's sensors and
// the servo bank, built on periph.io. Everything above this package talks
// to narrow probe interfaces so the rest of the tree never needs real GPIO.
package hal

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Driver errors surfaced to the sensor layer. Callers translate these into
// invalid readings; they never cross the component boundary as panics.
var (
	ErrEchoTimeout = errors.New("hal: timeout waiting for echo")
	ErrChecksum    = errors.New("hal: checksum mismatch")
	ErrNoSignal    = errors.New("hal: sensor did not respond")
)

var initOnce sync.Once
var initErr error

// Init loads the periph host drivers. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

// Pin resolves a pin by periph name ("GPIO4", "GPIO27", ...).
func Pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("hal: no such pin %q", name)
	}
	return p, nil
}
