// Package scan sweeps the head servo across a range of angles and measures
// clearance at each stop, producing an obstacle map of the surroundings.
package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sample is the measured clearance at one sweep angle. A sample whose
// measurement never succeeded has Failed set and a zero clearance, which
// downstream logic treats as blocked.
type Sample struct {
	Angle       float64 `json:"angle"`
	ClearanceCM float64 `json:"clearance_cm"`
	Failed      bool    `json:"failed,omitempty"`
}

// Result is one completed (or aborted) sweep.
type Result struct {
	Samples         []Sample  `json:"samples"`
	BlockedAngles   []float64 `json:"blocked_angles"`
	BestAngle       float64   `json:"best_angle"`
	BestClearanceCM float64   `json:"best_clearance_cm"`
	FullyBlocked    bool      `json:"fully_blocked"`
	Aborted         bool      `json:"aborted,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Summary renders the result as a short spoken-style sentence.
func (r Result) Summary() string {
	if len(r.Samples) == 0 {
		return "Scan produced no measurements."
	}
	var b strings.Builder
	if r.Aborted {
		b.WriteString("Scan stopped early. ")
	}
	switch {
	case r.FullyBlocked:
		b.WriteString("All directions are blocked.")
	case len(r.BlockedAngles) == 0:
		fmt.Fprintf(&b, "All clear. Most open direction is %.0f degrees with %.0f cm of room.", r.BestAngle, r.BestClearanceCM)
	default:
		fmt.Fprintf(&b, "Blocked at %s. Most open direction is %.0f degrees with %.0f cm of room.",
			joinAngles(r.BlockedAngles), r.BestAngle, r.BestClearanceCM)
	}
	return b.String()
}

func joinAngles(angles []float64) string {
	parts := make([]string, len(angles))
	for i, a := range angles {
		parts[i] = fmt.Sprintf("%.0f", a)
	}
	return strings.Join(parts, ", ") + " degrees"
}

// median returns the central value of vs, the lower of the two central
// values when the count is even. vs must be non-empty; it is not modified.
func median(vs []float64) float64 {
	s := make([]float64, len(vs))
	copy(s, vs)
	sort.Float64s(s)
	return s[(len(s)-1)/2]
}
