package inference

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const providerOffline = "offline"

// Offline is a rule-based provider that never fails. It handles the small
// talk a voice assistant sees constantly and falls back to a canned line
// for everything else, so the assistant stays responsive with no network.
type Offline struct {
	now func() time.Time
}

// NewOffline creates the offline responder.
func NewOffline() *Offline {
	return &Offline{now: time.Now}
}

// Name identifies the provider.
func (o *Offline) Name() string { return providerOffline }

// Chat answers from the rule table. The last user message is the query.
func (o *Offline) Chat(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
	var query string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			query = req.Messages[i].Content
			break
		}
	}

	return &ChatResponse{
		Message:      NewAssistantMessage(o.respond(strings.ToLower(strings.TrimSpace(query)))),
		FinishReason: "stop",
		Provider:     providerOffline,
	}, nil
}

func (o *Offline) respond(q string) string {
	if q == "" {
		return "I did not catch that. Could you say it again?"
	}

	// Arithmetic first: "6 times 7" must not trip the "time" rule.
	if answer, ok := evalArithmetic(q); ok {
		return answer
	}

	switch {
	case containsAny(q, "hello", "hey", "hi ", "namaste", "namaskar") || q == "hi":
		return "Hello! I am Jarvis. How can I help you?"

	case containsAny(q, "thank", "thanks", "dhanyavad", "shukriya"):
		return "You are welcome!"

	case containsAny(q, "how are you", "kaise ho", "kaisa hai"):
		return "I am doing well, thank you. All systems are running."

	case containsAny(q, "your name", "who are you", "tumhara naam"):
		return "I am Jarvis, your robot assistant."

	case containsAny(q, "time", "samay", "baje"):
		return "It is " + o.now().Format("3:04 PM") + "."

	case containsAny(q, "date", "today", "aaj", "tarikh"):
		return "Today is " + o.now().Format("Monday, January 2") + "."

	case containsAny(q, "bye", "goodbye", "alvida", "good night"):
		return "Goodbye! Call me when you need me."
	}

	return "I am offline right now, so I can only answer simple questions. " +
		"Ask me about my sensors, or try again when I am connected."
}

// evalArithmetic answers "what is 2 plus 3" style questions with one
// binary operation. Anything fancier goes to the online provider.
func evalArithmetic(q string) (string, bool) {
	replacer := strings.NewReplacer(
		"plus", "+", "minus", "-",
		"times", "*", "multiplied by", "*", "into", "*",
		"divided by", "/", "over", "/",
	)
	q = replacer.Replace(q)

	for _, op := range []string{"+", "-", "*", "/"} {
		idx := strings.Index(q, op)
		if idx <= 0 {
			continue
		}
		a, okA := lastNumber(q[:idx])
		b, okB := firstNumber(q[idx+1:])
		if !okA || !okB {
			continue
		}
		var v float64
		switch op {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return "I cannot divide by zero.", true
			}
			v = a / b
		}
		return "That is " + formatNumber(v) + ".", true
	}
	return "", false
}

func lastNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	for i := len(fields) - 1; i >= 0; i-- {
		if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func firstNumber(s string) (float64, bool) {
	for _, f := range strings.Fields(s) {
		f = strings.TrimRight(f, "?.!")
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.2f", v)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Capabilities returns the offline responder's capabilities.
func (o *Offline) Capabilities() Capabilities {
	return Capabilities{Chat: true}
}

// Health always succeeds; the rule table has nothing to break.
func (o *Offline) Health(context.Context) error { return nil }

// Close releases nothing.
func (o *Offline) Close() error { return nil }

// Verify Offline implements Provider at compile time.
var _ Provider = (*Offline)(nil)
