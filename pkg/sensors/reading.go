// Package sensors fuses the hardware probes into cached, fail-soft readings.
//
// Each sensor kind carries its own cache policy: slow sensors (the DHT) are
// served from a short-lived cache, instantaneous ones are always probed.
// A probe failure falls back to the last good value inside a staleness
// window instead of erroring, so a flaky wire degrades answers gracefully
// rather than breaking them.
package sensors

import "time"

// Kind identifies a sensor reading.
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
	KindDistance    Kind = "distance"
	KindMotion      Kind = "motion"
	KindGas         Kind = "gas"
)

// Kinds lists every reading kind in presentation order.
var Kinds = []Kind{KindTemperature, KindHumidity, KindDistance, KindMotion, KindGas}

// Reason explains why a reading is invalid or degraded.
const (
	ReasonDisabled   = "disabled"
	ReasonFailed     = "failed"
	ReasonStaleCache = "stale-cache"
)

// Reading is one observation from a sensor. Boolean sensors report 0 or 1
// in Value. An invalid reading carries Reason and a zero Value.
type Reading struct {
	Kind      Kind      `json:"kind"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason,omitempty"`
}

// Bool reports the reading as a boolean, for motion and gas kinds.
func (r Reading) Bool() bool {
	return r.Value != 0
}

func unitFor(kind Kind) string {
	switch kind {
	case KindTemperature:
		return "celsius"
	case KindHumidity:
		return "percent"
	case KindDistance:
		return "cm"
	default:
		return ""
	}
}
