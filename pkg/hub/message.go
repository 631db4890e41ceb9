// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"time"
)

// Event names broadcast to dashboard clients.
const (
	EventSensors  = "sensors"
	EventScan     = "scan"
	EventCommand  = "command"
	EventShutdown = "shutdown"
)

// Envelope wraps every broadcast event with its type and timestamp.
type Envelope struct {
	Event   string    `json:"event"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// Message is an encoded frame ready to write to clients.
type Message struct {
	Data []byte
}

// NewEvent encodes an event envelope.
func NewEvent(event string, payload any) (Message, error) {
	data, err := json.Marshal(Envelope{Event: event, Time: time.Now(), Payload: payload})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
