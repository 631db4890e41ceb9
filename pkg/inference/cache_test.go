package inference

import (
	"fmt"
	"os"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCacheHitAndNormalization(t *testing.T) {
	c := NewResponseCache(time.Hour, 10)
	c.Put("What is the capital of France?", "Paris.")

	got, ok := c.Get("  what   IS the capital of france?  ")
	if !ok || got != "Paris." {
		t.Errorf("Get = %q, %v; want cached answer", got, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewResponseCache(time.Hour, 10)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("question", "answer")
	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("question"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewResponseCache(time.Hour, 2)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("first", "1")
	now = now.Add(time.Minute)
	c.Put("second", "2")
	now = now.Add(time.Minute)
	c.Put("third", "3")

	if _, ok := c.Get("first"); ok {
		t.Error("oldest entry should be evicted")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("newest entry should survive")
	}
}

func TestCacheMissIsClean(t *testing.T) {
	c := NewResponseCache(time.Hour, 10)
	for i := 0; i < 3; i++ {
		if v, ok := c.Get(fmt.Sprintf("q%d", i)); ok {
			t.Errorf("unexpected hit %q", v)
		}
	}
}
