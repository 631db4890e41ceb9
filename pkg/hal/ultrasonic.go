package hal

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Echo timeouts, matching the sensor's physical envelope: at ~4m maximum
// range the echo returns within ~24ms, so a pulse longer than that is lost.
const (
	echoStartTimeout = 100 * time.Millisecond
	echoEndTimeout   = 30 * time.Millisecond
	speedOfSoundCmS  = 34300.0
)

// HCSR04 measures distance with an ultrasonic trigger/echo pair.
// A missing echo is reported as ErrEchoTimeout, never as a hang.
type HCSR04 struct {
	trigger gpio.PinIO
	echo    gpio.PinIO

	mu sync.Mutex
}

// NewHCSR04 creates a driver on the given trigger and echo pins.
func NewHCSR04(triggerPin, echoPin string) (*HCSR04, error) {
	trig, err := Pin(triggerPin)
	if err != nil {
		return nil, err
	}
	echo, err := Pin(echoPin)
	if err != nil {
		return nil, err
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, err
	}
	return &HCSR04{trigger: trig, echo: echo}, nil
}

// ProbeDistance fires one pulse and returns the measured distance in cm.
func (u *HCSR04) ProbeDistance() (float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	// 10us trigger pulse
	if err := u.trigger.Out(gpio.High); err != nil {
		return 0, err
	}
	time.Sleep(10 * time.Microsecond)
	if err := u.trigger.Out(gpio.Low); err != nil {
		return 0, err
	}

	if !u.echo.WaitForEdge(echoStartTimeout) {
		return 0, ErrEchoTimeout
	}
	start := time.Now()

	if !u.echo.WaitForEdge(echoEndTimeout) {
		return 0, ErrEchoTimeout
	}
	elapsed := time.Since(start)

	// Sound travels out and back.
	return elapsed.Seconds() * speedOfSoundCmS / 2, nil
}
