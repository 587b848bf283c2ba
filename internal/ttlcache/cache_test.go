package ttlcache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](4, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %t; want 2, true", v, ok)
	}
	if !c.Has("a") || c.Has("b") {
		t.Error("Has mismatch")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	c.Delete("a")
	if c.Has("a") {
		t.Error("Delete did not remove entry")
	}
}

func TestCache_LazyExpiry(t *testing.T) {
	clk := newClock()
	c := New[string, string](4, 10*time.Second, WithClock(clk.Now))
	c.Set("k", "v")

	clk.Advance(10 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live at exactly the ttl")
	}
	clk.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed on read, Len = %d", c.Len())
	}
}

func TestCache_Cleanup(t *testing.T) {
	clk := newClock()
	c := New[int, int](8, time.Second, WithClock(clk.Now))
	c.Set(1, 1)
	c.Set(2, 2)
	clk.Advance(2 * time.Second)
	c.Set(3, 3)

	if n := c.Cleanup(); n != 2 {
		t.Errorf("Cleanup removed %d, want 2", n)
	}
	if c.Len() != 1 || !c.Has(3) {
		t.Errorf("unexpected survivors, Len = %d", c.Len())
	}
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	clk := newClock()
	c := New[string, int](2, time.Hour, WithClock(clk.Now))
	c.Set("old", 1)
	clk.Advance(time.Second)
	c.Set("new", 2)
	clk.Advance(time.Second)
	c.Set("newest", 3)

	if c.Has("old") {
		t.Error("oldest entry should have been evicted")
	}
	if !c.Has("new") || !c.Has("newest") {
		t.Error("younger entries should survive")
	}
}

func TestCache_EvictsExpiredFirst(t *testing.T) {
	clk := newClock()
	c := New[string, int](2, 5*time.Second, WithClock(clk.Now))
	c.Set("a", 1)
	clk.Advance(3 * time.Second)
	c.Set("b", 2)
	clk.Advance(3 * time.Second) // a expired, b live
	c.Set("b", 20)               // refresh b, no eviction needed
	c.Set("c", 3)

	if !c.Has("b") || !c.Has("c") {
		t.Error("live entries should survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[int, int](0, 0)
	c.Set(1, 1)
	c.Set(2, 2) // capacity clamps to 1
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestCache_NoTTL(t *testing.T) {
	clk := newClock()
	c := New[string, int](1, 0, WithClock(clk.Now))
	c.Set("k", 1)
	clk.Advance(24 * time.Hour)
	if !c.Has("k") {
		t.Error("zero ttl should never expire")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(j%32, i)
				c.Get(j % 32)
				c.Cleanup()
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
