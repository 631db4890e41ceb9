package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jarvispi/go-jarvis/pkg/inference"
	"github.com/jarvispi/go-jarvis/pkg/scan"
	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

type stubSensors struct {
	readings map[sensors.Kind]sensors.Reading
}

func (s *stubSensors) Read(kind sensors.Kind) sensors.Reading {
	if r, ok := s.readings[kind]; ok {
		return r
	}
	return sensors.Reading{Kind: kind, Reason: sensors.ReasonDisabled}
}

func (s *stubSensors) ReadAll() map[sensors.Kind]sensors.Reading {
	out := make(map[sensors.Kind]sensors.Reading)
	for _, k := range sensors.Kinds {
		out[k] = s.Read(k)
	}
	return out
}

type stubSweeper struct {
	result *scan.Result
	sweeps int
}

func (s *stubSweeper) Sweep(context.Context) (*scan.Result, error) {
	s.sweeps++
	return s.result, nil
}

func (s *stubSweeper) Last() *scan.Result { return s.result }

type stubHead struct {
	moves []float64
}

func (h *stubHead) MoveTo(_ context.Context, _ string, angle float64) (float64, error) {
	h.moves = append(h.moves, angle)
	return angle, nil
}

func (h *stubHead) Home(ctx context.Context, ch string) (float64, error) {
	return h.MoveTo(ctx, ch, 90)
}

func (h *stubHead) Limits(string) (float64, float64, float64, error) {
	return 10, 170, 90, nil
}

func testRouter(online inference.Provider) (*Router, *stubSweeper, *stubHead) {
	sens := &stubSensors{readings: map[sensors.Kind]sensors.Reading{
		sensors.KindTemperature: {Kind: sensors.KindTemperature, Value: 24.5, Unit: "celsius", Valid: true},
	}}
	sweeper := &stubSweeper{result: &scan.Result{
		Samples:         []scan.Sample{{Angle: 90, ClearanceCM: 75}},
		BestAngle:       90,
		BestClearanceCM: 75,
	}}
	head := &stubHead{}
	tools := NewTools(sens, sweeper, head, nil, "pan")
	r := NewRouter(RouterConfig{
		Tools:         tools,
		Online:        online,
		OnlineTimeout: time.Second,
	})
	return r, sweeper, head
}

func TestToolIntentStaysLocal(t *testing.T) {
	online := inference.NewMock("should not be used")
	r, _, _ := testRouter(online)

	resp, err := r.Process(context.Background(), "Jarvis, what is the temperature?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeTool {
		t.Errorf("mode = %s, want tool", resp.Decision.Mode)
	}
	if resp.Text != "The temperature is 24.5 degrees Celsius." {
		t.Errorf("text = %q", resp.Text)
	}
	if online.CallCount("Chat") != 0 {
		t.Error("online backend must not be called for a tool intent")
	}
	if resp.CommandID == "" {
		t.Error("command id missing")
	}
}

func TestScanIntentRunsSweep(t *testing.T) {
	r, sweeper, _ := testRouter(nil)

	resp, err := r.Process(context.Background(), "scan the room")
	if err != nil {
		t.Fatal(err)
	}
	if sweeper.sweeps != 1 {
		t.Fatalf("sweeps = %d, want 1", sweeper.sweeps)
	}
	if resp.Decision.Intent != IntentScan {
		t.Errorf("intent = %s", resp.Decision.Intent)
	}
}

func TestLookIntentMovesHead(t *testing.T) {
	r, _, head := testRouter(nil)

	resp, err := r.Process(context.Background(), "look left")
	if err != nil {
		t.Fatal(err)
	}
	if len(head.moves) != 1 || head.moves[0] != 170 {
		t.Errorf("head moves = %v, want [170]", head.moves)
	}
	if resp.Text != "Looking left." {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestDisabledSensorSentence(t *testing.T) {
	r, _, _ := testRouter(nil)

	resp, err := r.Process(context.Background(), "how humid is it")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "The climate sensor is not connected." {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestFreeTextGoesOnline(t *testing.T) {
	online := inference.NewMock("The sky scatters blue light.")
	r, _, _ := testRouter(online)

	resp, err := r.Process(context.Background(), "why is the sky blue")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeOnline {
		t.Errorf("mode = %s, want online", resp.Decision.Mode)
	}
	if resp.Text != "The sky scatters blue light." {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestOnlineFailureFallsBackSilently(t *testing.T) {
	online := inference.WithError(errors.New("connection refused"))
	r, _, _ := testRouter(online)

	resp, err := r.Process(context.Background(), "explain black holes")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeOffline {
		t.Errorf("mode = %s, want offline fallback", resp.Decision.Mode)
	}
	if resp.Text == "" {
		t.Error("fallback answer must not be empty")
	}
	if !strings.Contains(resp.Text, "offline") {
		t.Errorf("answer %q should come from the offline responder", resp.Text)
	}
}

func TestOnlineTimeoutFallsBackThroughChain(t *testing.T) {
	// The backend hangs until its context expires; the chain must move on
	// to the offline responder instead of surfacing the timeout.
	online := &inference.Mock{ChatFunc: func(ctx context.Context, _ *inference.ChatRequest) (*inference.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	tools := NewTools(&stubSensors{}, &stubSweeper{}, &stubHead{}, nil, "pan")
	r := NewRouter(RouterConfig{Tools: tools, Online: online, OnlineTimeout: 20 * time.Millisecond})

	resp, err := r.Process(context.Background(), "explain black holes")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeOffline {
		t.Errorf("mode = %s, want offline after timeout", resp.Decision.Mode)
	}
	if resp.Text == "" {
		t.Error("fallback answer must not be empty")
	}
	if online.CallCount("Chat") != 1 {
		t.Errorf("backend called %d times, want 1", online.CallCount("Chat"))
	}
}

func TestForceOfflineSkipsBackend(t *testing.T) {
	online := inference.NewMock("online answer")
	r, _, _ := testRouter(online)
	r.SetForceOffline(true)

	resp, err := r.Process(context.Background(), "explain black holes")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeOffline {
		t.Errorf("mode = %s, want offline", resp.Decision.Mode)
	}
	if online.CallCount("Chat") != 0 {
		t.Error("online backend called despite force offline")
	}
}

func TestResponseCacheSavesQuota(t *testing.T) {
	online := inference.NewMock("cached answer")
	sens := &stubSensors{}
	tools := NewTools(sens, &stubSweeper{}, &stubHead{}, nil, "pan")
	r := NewRouter(RouterConfig{
		Tools:  tools,
		Online: online,
		Cache:  inference.NewResponseCache(time.Hour, 16),
	})

	ctx := context.Background()
	first, _ := r.Process(ctx, "explain black holes")
	second, _ := r.Process(ctx, "Explain BLACK holes!")

	if first.Decision.Mode != ModeOnline {
		t.Errorf("first mode = %s", first.Decision.Mode)
	}
	if second.Decision.Mode != ModeCache {
		t.Errorf("second mode = %s, want cache", second.Decision.Mode)
	}
	if online.CallCount("Chat") != 1 {
		t.Errorf("backend called %d times, want 1", online.CallCount("Chat"))
	}
}

func TestQuotaExhaustedGoesOffline(t *testing.T) {
	online := inference.NewMock("online answer")
	sens := &stubSensors{}
	tools := NewTools(sens, &stubSweeper{}, &stubHead{}, nil, "pan")

	ledger := inference.NewLedger(t.TempDir()+"/quota.json", 1, 1)
	r := NewRouter(RouterConfig{Tools: tools, Online: online, Quota: ledger})

	ctx := context.Background()
	first, _ := r.Process(ctx, "explain black holes")
	second, _ := r.Process(ctx, "explain white holes")

	if first.Decision.Mode != ModeOnline {
		t.Errorf("first mode = %s, want online", first.Decision.Mode)
	}
	if second.Decision.Mode != ModeOffline {
		t.Errorf("second mode = %s, want offline after quota", second.Decision.Mode)
	}
	if online.CallCount("Chat") != 1 {
		t.Errorf("backend called %d times, want 1", online.CallCount("Chat"))
	}
}

func TestSmallTalkAnsweredOffline(t *testing.T) {
	online := inference.NewMock("should not be used")
	r, _, _ := testRouter(online)

	resp, err := r.Process(context.Background(), "hello jarvis")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.Mode != ModeOffline {
		t.Errorf("mode = %s, want offline", resp.Decision.Mode)
	}
	if online.CallCount("Chat") != 0 {
		t.Error("small talk must not hit the backend")
	}
}
