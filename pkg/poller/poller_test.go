package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarvispi/go-jarvis/pkg/sensors"
)

type countingSource struct {
	calls atomic.Int64
}

func (c *countingSource) ReadAll() map[sensors.Kind]sensors.Reading {
	c.calls.Add(1)
	return map[sensors.Kind]sensors.Reading{
		sensors.KindTemperature: {Kind: sensors.KindTemperature, Value: 21, Valid: true},
	}
}

func TestPollerReadsOnInterval(t *testing.T) {
	src := &countingSource{}
	p := New(src, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(55 * time.Millisecond)
	cancel()
	<-done

	// One immediate read plus several ticks.
	if got := src.calls.Load(); got < 3 {
		t.Errorf("ReadAll called %d times, want at least 3", got)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	src := &countingSource{}
	p := New(src, nil, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancelled context")
	}
}
