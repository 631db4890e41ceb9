package hal

import (
	"periph.io/x/conn/v3/gpio"
)

// GasPin reads a gas sensor's digital threshold output (the DO pin of an
// MQ-class breakout). The comparator on most boards pulls the line low
// when the concentration crosses the trimmer threshold, hence activeLow.
type GasPin struct {
	pin       gpio.PinIO
	activeLow bool
}

// NewGasPin creates a driver on the given pin.
func NewGasPin(pinName string, activeLow bool) (*GasPin, error) {
	pin, err := Pin(pinName)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &GasPin{pin: pin, activeLow: activeLow}, nil
}

// ProbeGas returns true when the sensor reports a concentration above its
// configured threshold.
func (g *GasPin) ProbeGas() (bool, error) {
	level := g.pin.Read()
	if g.activeLow {
		return level == gpio.Low, nil
	}
	return level == gpio.High, nil
}
