package hal

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DHTModel selects the wire format of the combined temperature/humidity
// sensor. DHT11 sends integral values, DHT22 sends signed tenths.
type DHTModel string

const (
	DHT11 DHTModel = "DHT11"
	DHT22 DHTModel = "DHT22"
)

// DHT reads a DHT-class sensor over its single-wire protocol.
// Reads fail routinely (checksum mismatches are a known failure mode of
// these sensors); callers are expected to treat a failed read as transient.
type DHT struct {
	pin   gpio.PinIO
	model DHTModel

	mu       sync.Mutex
	lastRead time.Time
}

// minReadInterval is the sensor's own recovery time between reads. Reading
// faster than this returns garbage, so the driver enforces it.
const minReadInterval = 2 * time.Second

// NewDHT creates a driver on the given pin.
func NewDHT(pinName string, model DHTModel) (*DHT, error) {
	if model != DHT11 && model != DHT22 {
		return nil, fmt.Errorf("hal: unsupported DHT model %q", model)
	}
	pin, err := Pin(pinName)
	if err != nil {
		return nil, err
	}
	return &DHT{pin: pin, model: model}, nil
}

// ProbeTempHumidity performs one hardware read and returns temperature in
// Celsius and relative humidity in percent.
func (d *DHT) ProbeTempHumidity() (float64, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if since := time.Since(d.lastRead); since < minReadInterval {
		time.Sleep(minReadInterval - since)
	}
	d.lastRead = time.Now()

	raw, err := d.readRaw()
	if err != nil {
		return 0, 0, err
	}
	return d.decode(raw)
}

// readRaw runs the single-wire handshake and samples the 40 data bits.
func (d *DHT) readRaw() ([5]byte, error) {
	var data [5]byte

	// Host start signal: hold the line low, then release.
	startLow := 18 * time.Millisecond
	if d.model == DHT22 {
		startLow = 2 * time.Millisecond
	}
	if err := d.pin.Out(gpio.Low); err != nil {
		return data, err
	}
	time.Sleep(startLow)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return data, err
	}

	// Sensor response: ~80us low, ~80us high, then 40 bits. Each bit is a
	// ~50us low followed by a high whose length encodes the value.
	if err := d.waitLevel(gpio.Low, 200*time.Microsecond); err != nil {
		return data, ErrNoSignal
	}
	if err := d.waitLevel(gpio.High, 200*time.Microsecond); err != nil {
		return data, ErrNoSignal
	}
	if err := d.waitLevel(gpio.Low, 200*time.Microsecond); err != nil {
		return data, ErrNoSignal
	}

	for i := 0; i < 40; i++ {
		if err := d.waitLevel(gpio.High, 150*time.Microsecond); err != nil {
			return data, ErrNoSignal
		}
		highStart := time.Now()
		if err := d.waitLevel(gpio.Low, 150*time.Microsecond); err != nil {
			return data, ErrNoSignal
		}
		// ~26-28us high means 0, ~70us high means 1.
		if time.Since(highStart) > 45*time.Microsecond {
			data[i/8] |= 1 << (7 - uint(i%8))
		}
	}

	sum := data[0] + data[1] + data[2] + data[3]
	if sum != data[4] {
		return data, ErrChecksum
	}
	return data, nil
}

// waitLevel busy-polls the pin until it reads level or the deadline passes.
// The bit timings are far below what edge notification can deliver from
// userspace, so polling is the only workable approach here.
func (d *DHT) waitLevel(level gpio.Level, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for d.pin.Read() != level {
		if time.Now().After(deadline) {
			return ErrNoSignal
		}
	}
	return nil
}

func (d *DHT) decode(raw [5]byte) (float64, float64, error) {
	switch d.model {
	case DHT22:
		hum := float64(uint16(raw[0])<<8|uint16(raw[1])) / 10
		temp := float64(uint16(raw[2]&0x7F)<<8|uint16(raw[3])) / 10
		if raw[2]&0x80 != 0 {
			temp = -temp
		}
		if hum > 100 {
			return 0, 0, fmt.Errorf("hal: implausible humidity %.1f%%", hum)
		}
		return temp, hum, nil
	default: // DHT11
		return float64(raw[2]), float64(raw[0]), nil
	}
}
