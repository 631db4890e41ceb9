package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jarvispi/go-jarvis/pkg/scan"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

// SensorReader answers sensor questions. Satisfied by sensors.Manager.
type SensorReader interface {
	Read(kind sensors.Kind) sensors.Reading
	ReadAll() map[sensors.Kind]sensors.Reading
}

// Sweeper runs environment scans. Satisfied by scan.Scanner.
type Sweeper interface {
	Sweep(ctx context.Context) (*scan.Result, error)
	Last() *scan.Result
}

// HeadMover points the head. Satisfied by actuator.Controller.
type HeadMover interface {
	MoveTo(ctx context.Context, channel string, angle float64) (float64, error)
	Home(ctx context.Context, channel string) (float64, error)
	Limits(channel string) (min, max, center float64, err error)
}

// MailReader summarizes unread mail.
type MailReader interface {
	UnreadSummary(ctx context.Context, max int) (string, error)
}

// Tools executes the intents from the table and phrases the results as
// speakable sentences.
type Tools struct {
	sensors SensorReader
	sweeper Sweeper
	head    HeadMover
	mail    MailReader

	// headChannel is the pan servo channel name.
	headChannel string
}

// NewTools wires the executors. mail may be nil when Gmail is not set up.
func NewTools(s SensorReader, sw Sweeper, head HeadMover, mail MailReader, headChannel string) *Tools {
	return &Tools{sensors: s, sweeper: sw, head: head, mail: mail, headChannel: headChannel}
}

// Run executes the intent and returns the spoken answer.
func (t *Tools) Run(ctx context.Context, intent Intent, normalized string) (string, error) {
	switch intent {
	case IntentTemperature:
		return t.sensorSentence(sensors.KindTemperature), nil
	case IntentHumidity:
		return t.sensorSentence(sensors.KindHumidity), nil
	case IntentDistance:
		return t.sensorSentence(sensors.KindDistance), nil
	case IntentMotion:
		return t.sensorSentence(sensors.KindMotion), nil
	case IntentGas:
		return t.sensorSentence(sensors.KindGas), nil
	case IntentScan:
		return t.runScan(ctx)
	case IntentLastScan:
		return t.lastScan(), nil
	case IntentLook:
		return t.look(ctx, normalized)
	case IntentEmail:
		return t.email(ctx)
	case IntentStatus:
		return t.status(), nil
	}
	return "", fmt.Errorf("command: no executor for intent %q", intent)
}

// sensorSentence phrases one reading, including the degraded cases.
func (t *Tools) sensorSentence(kind sensors.Kind) string {
	r := t.sensors.Read(kind)

	switch r.Reason {
	case sensors.ReasonDisabled:
		return fmt.Sprintf("The %s sensor is not connected.", kindNoun(kind))
	case sensors.ReasonFailed:
		return fmt.Sprintf("I could not read the %s sensor right now.", kindNoun(kind))
	}

	suffix := ""
	if r.Reason == sensors.ReasonStaleCache {
		suffix = " That reading is a little old, the sensor is acting up."
	}

	switch kind {
	case sensors.KindTemperature:
		return fmt.Sprintf("The temperature is %.1f degrees Celsius.%s", r.Value, suffix)
	case sensors.KindHumidity:
		return fmt.Sprintf("The humidity is %.0f percent.%s", r.Value, suffix)
	case sensors.KindDistance:
		return fmt.Sprintf("The nearest obstacle is %.0f centimeters away.%s", r.Value, suffix)
	case sensors.KindMotion:
		if r.Bool() {
			return "Yes, I am detecting motion." + suffix
		}
		return "No motion detected." + suffix
	case sensors.KindGas:
		if r.Bool() {
			return "Warning, I am detecting gas. Please check the room." + suffix
		}
		return "The air looks clear, no gas detected." + suffix
	}
	return "I do not know that sensor."
}

func (t *Tools) runScan(ctx context.Context) (string, error) {
	res, err := t.sweeper.Sweep(ctx)
	if err != nil {
		if errors.Is(err, scan.ErrScanInProgress) {
			return "I am already scanning, one moment.", nil
		}
		return "", err
	}
	return res.Summary(), nil
}

func (t *Tools) lastScan() string {
	res := t.sweeper.Last()
	if res == nil {
		return "I have not scanned yet. Say scan and I will look around."
	}
	return res.Summary()
}

// look points the head left, right or back to center based on the phrase.
func (t *Tools) look(ctx context.Context, normalized string) (string, error) {
	min, max, center, err := t.head.Limits(t.headChannel)
	if err != nil {
		return "", err
	}

	var target float64
	var where string
	switch {
	case strings.Contains(normalized, "left") || strings.Contains(normalized, "baye"):
		target, where = max, "left"
	case strings.Contains(normalized, "right") || strings.Contains(normalized, "daye"):
		target, where = min, "right"
	default:
		target, where = center, "ahead"
	}

	if _, err := t.head.MoveTo(ctx, t.headChannel, target); err != nil {
		return "", err
	}
	return "Looking " + where + ".", nil
}

func (t *Tools) email(ctx context.Context) (string, error) {
	if t.mail == nil {
		return "Email is not set up on this robot yet.", nil
	}
	summary, err := t.mail.UnreadSummary(ctx, 3)
	if err != nil {
		return "I could not reach your inbox right now.", nil
	}
	return summary, nil
}

// status reads everything and gives a one-breath report.
func (t *Tools) status() string {
	all := t.sensors.ReadAll()
	var parts []string
	for _, kind := range sensors.Kinds {
		r := all[kind]
		if !r.Valid {
			continue
		}
		switch kind {
		case sensors.KindTemperature:
			parts = append(parts, fmt.Sprintf("%.1f degrees", r.Value))
		case sensors.KindHumidity:
			parts = append(parts, fmt.Sprintf("%.0f percent humidity", r.Value))
		case sensors.KindDistance:
			parts = append(parts, fmt.Sprintf("nearest obstacle %.0f centimeters", r.Value))
		case sensors.KindMotion:
			if r.Bool() {
				parts = append(parts, "motion detected")
			}
		case sensors.KindGas:
			if r.Bool() {
				parts = append(parts, "gas alert")
			}
		}
	}
	if len(parts) == 0 {
		return "All sensors are offline right now."
	}
	return "All systems running. " + strings.Join(parts, ", ") + "."
}

func kindNoun(kind sensors.Kind) string {
	switch kind {
	case sensors.KindTemperature, sensors.KindHumidity:
		return "climate"
	case sensors.KindDistance:
		return "distance"
	case sensors.KindMotion:
		return "motion"
	case sensors.KindGas:
		return "gas"
	}
	return string(kind)
}
