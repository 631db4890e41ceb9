package actuator

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeDriver struct {
	mu    sync.Mutex
	moves []float64
}

func (f *fakeDriver) SetAngle(channel int, angle float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, angle)
	return nil
}

func (f *fakeDriver) lastMove() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moves[len(f.moves)-1]
}

func panChannel() Channel {
	return Channel{Name: "pan", Index: 0, Min: 10, Max: 170, Center: 90}
}

func newTestController(t *testing.T, drv Driver) *Controller {
	t.Helper()
	c, err := New(drv, 0, 0, panChannel())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMoveToClampsToLimits(t *testing.T) {
	drv := &fakeDriver{}
	c := newTestController(t, drv)
	ctx := context.Background()

	got, err := c.MoveTo(ctx, "pan", 200)
	if err != nil {
		t.Fatal(err)
	}
	if got != 170 {
		t.Errorf("MoveTo(200) = %v, want clamped 170", got)
	}
	if drv.lastMove() != 170 {
		t.Errorf("driver commanded %v, want 170", drv.lastMove())
	}

	cur, err := c.Current("pan")
	if err != nil {
		t.Fatal(err)
	}
	if cur != 170 {
		t.Errorf("Current = %v, want 170", cur)
	}

	got, _ = c.MoveTo(ctx, "pan", -40)
	if got != 10 {
		t.Errorf("MoveTo(-40) = %v, want clamped 10", got)
	}
}

func TestHomeReturnsToCenter(t *testing.T) {
	drv := &fakeDriver{}
	c := newTestController(t, drv)
	ctx := context.Background()

	c.MoveTo(ctx, "pan", 30)
	got, err := c.Home(ctx, "pan")
	if err != nil {
		t.Fatal(err)
	}
	if got != 90 {
		t.Errorf("Home = %v, want 90", got)
	}
}

func TestLastMoveUpdatedByMoveTo(t *testing.T) {
	c := newTestController(t, &fakeDriver{})

	before, err := c.LastMove("pan")
	if err != nil {
		t.Fatal(err)
	}
	if !before.IsZero() {
		t.Errorf("LastMove before any move = %v, want zero", before)
	}

	start := time.Now()
	if _, err := c.MoveTo(context.Background(), "pan", 120); err != nil {
		t.Fatal(err)
	}

	after, _ := c.LastMove("pan")
	if after.Before(start) {
		t.Errorf("LastMove = %v, want at or after %v", after, start)
	}
}

func TestUnknownChannel(t *testing.T) {
	c := newTestController(t, &fakeDriver{})
	if _, err := c.MoveTo(context.Background(), "tilt", 90); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestSettleProportionalToTravel(t *testing.T) {
	drv := &fakeDriver{}
	c, err := New(drv, 10*time.Millisecond, time.Millisecond, panChannel())
	if err != nil {
		t.Fatal(err)
	}

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	ctx := context.Background()

	c.MoveTo(ctx, "pan", 120) // 30 degrees from center
	c.MoveTo(ctx, "pan", 120) // no travel

	if len(slept) != 2 {
		t.Fatalf("recorded %d settles, want 2", len(slept))
	}
	if slept[0] != 40*time.Millisecond {
		t.Errorf("settle for 30 degree move = %v, want 40ms", slept[0])
	}
	if slept[1] != 10*time.Millisecond {
		t.Errorf("settle for zero move = %v, want base 10ms", slept[1])
	}
}

func TestConcurrentMovesSerialize(t *testing.T) {
	drv := &fakeDriver{}
	c, err := New(drv, 20*time.Millisecond, 0, panChannel())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(a float64) {
			defer wg.Done()
			c.MoveTo(ctx, "pan", a)
		}(float64(40 + i*10))
	}
	wg.Wait()

	// Whatever the interleaving, the reported position matches the last
	// commanded angle.
	cur, _ := c.Current("pan")
	if cur != drv.lastMove() {
		t.Errorf("Current = %v but driver last saw %v", cur, drv.lastMove())
	}
}

func TestMoveCancelledDuringSettle(t *testing.T) {
	drv := &fakeDriver{}
	c, err := New(drv, time.Second, 0, panChannel())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := c.MoveTo(ctx, "pan", 100)
	if err == nil {
		t.Fatal("expected context error")
	}
	// The servo was still commanded before the settle wait.
	if got != 100 || drv.lastMove() != 100 {
		t.Errorf("commanded angle = %v / %v, want 100", got, drv.lastMove())
	}
}

func TestNewRejectsBadChannel(t *testing.T) {
	if _, err := New(&fakeDriver{}, 0, 0, Channel{Name: "pan", Min: 100, Max: 50, Center: 75}); err == nil {
		t.Error("expected error for min > max")
	}
	if _, err := New(&fakeDriver{}, 0, 0, Channel{Name: "pan", Min: 0, Max: 90, Center: 120}); err == nil {
		t.Error("expected error for center outside limits")
	}
}
