package hal

import (
	"periph.io/x/conn/v3/gpio"
)

// PIR reads a passive infrared motion detector. The sensor latches its
// output high for a second or two after motion, so level reads are enough;
// no edge watching is needed at this layer.
type PIR struct {
	pin gpio.PinIO
}

// NewPIR creates a driver on the given pin.
func NewPIR(pinName string) (*PIR, error) {
	pin, err := Pin(pinName)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &PIR{pin: pin}, nil
}

// ProbeMotion returns true while the sensor reports motion.
func (p *PIR) ProbeMotion() (bool, error) {
	return p.pin.Read() == gpio.High, nil
}
