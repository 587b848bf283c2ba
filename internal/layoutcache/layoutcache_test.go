package layoutcache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/layout"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/testutil/notetest"
)

type countingRecorder struct {
	hits, misses, rebuilds atomic.Int64
}

func (r *countingRecorder) CacheHit(string)  { r.hits.Add(1) }
func (r *countingRecorder) CacheMiss(string) { r.misses.Add(1) }
func (r *countingRecorder) Rebuilt(string, int, time.Duration) {
	r.rebuilds.Add(1)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fixture() []models.Note {
	return hierarchy.Resolve(notetest.Forest("r", "", "a", "r", "b", "r"))
}

func newCache(t *testing.T) (*Cache, *clock, *countingRecorder) {
	t.Helper()
	clk := &clock{now: notetest.Epoch}
	rec := &countingRecorder{}
	return New(layout.DefaultConfig(), WithClock(clk.Now), WithRecorder(rec)), clk, rec
}

func TestCache_HitReturnsSameInstance(t *testing.T) {
	c, clk, rec := newCache(t)
	notes := fixture()

	first := c.Graph(notes)
	clk.Advance(5 * time.Second)
	second := c.Graph(notes)
	if first != second {
		t.Fatal("unchanged collection within ttl should return the cached graph")
	}
	if rec.hits.Load() != 1 || rec.misses.Load() != 1 || rec.rebuilds.Load() != 1 {
		t.Errorf("hits=%d misses=%d rebuilds=%d", rec.hits.Load(), rec.misses.Load(), rec.rebuilds.Load())
	}
}

func TestCache_EqualCopyHits(t *testing.T) {
	c, _, _ := newCache(t)
	notes := fixture()
	first := c.Graph(notes)

	again := fixture()
	// Reverse order: the hash is order independent.
	for i, j := 0, len(again)-1; i < j; i, j = i+1, j-1 {
		again[i], again[j] = again[j], again[i]
	}
	if c.Graph(again) != first {
		t.Error("equal collection should hit the cache")
	}
}

func TestCache_UpdatedAtChangeMisses(t *testing.T) {
	c, _, rec := newCache(t)
	notes := fixture()
	first := c.Graph(notes)

	changed := fixture()
	changed[1].UpdatedAt = changed[1].UpdatedAt.Add(time.Nanosecond)
	second := c.Graph(changed)
	if first == second {
		t.Fatal("changed updated_at should rebuild")
	}
	if rec.rebuilds.Load() != 2 {
		t.Errorf("rebuilds = %d, want 2", rec.rebuilds.Load())
	}
	if len(second.Nodes) != len(first.Nodes) {
		t.Error("structure should be unchanged")
	}
}

func TestCache_TTLExpiryMisses(t *testing.T) {
	c, clk, _ := newCache(t)
	notes := fixture()
	first := c.Graph(notes)

	clk.Advance(DefaultTTL + time.Millisecond)
	if c.Graph(notes) == first {
		t.Error("entry older than ttl should rebuild")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _, _ := newCache(t)
	notes := fixture()
	first := c.Graph(notes)
	c.Invalidate()
	if _, ok := c.Entry(DefaultKey); ok {
		t.Fatal("entry survived Invalidate")
	}
	if c.Graph(notes) == first {
		t.Error("Invalidate should force a rebuild")
	}
}

func TestCache_KeyedSlots(t *testing.T) {
	c, _, _ := newCache(t)
	full := fixture()
	scoped := full[:1]

	g1 := c.GraphFor("full", full)
	g2 := c.GraphFor("scoped", scoped)
	if len(g1.Nodes) != 3 || len(g2.Nodes) != 1 {
		t.Fatalf("nodes = %d, %d", len(g1.Nodes), len(g2.Nodes))
	}
	if c.GraphFor("full", full) != g1 || c.GraphFor("scoped", scoped) != g2 {
		t.Error("slots should be independent")
	}
	e, ok := c.Entry("full")
	if !ok || e.Hash != Hash(full) || !e.CreatedAt.Equal(notetest.Epoch) {
		t.Errorf("entry = %+v, %t", e, ok)
	}
}

func TestCache_ConcurrentMissesBuildOnce(t *testing.T) {
	c, _, rec := newCache(t)
	notes := fixture()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Graph(notes)
		}()
	}
	wg.Wait()
	// Late arrivals may miss before the first build lands, but the rebuild
	// itself is shared or short-circuited by the recheck.
	if n := rec.rebuilds.Load(); n != 1 {
		t.Errorf("rebuilds = %d, want 1", n)
	}
}

func TestHash(t *testing.T) {
	a := fixture()
	if Hash(a) != Hash(fixture()) {
		t.Error("hash should be stable for equal input")
	}
	b := fixture()
	b[0].Title = "renamed"
	if Hash(a) != Hash(b) {
		t.Error("hash only covers id and updated_at")
	}
	c := fixture()
	c[2].ID = "z"
	if Hash(a) == Hash(c) {
		t.Error("different ids should change the hash")
	}
	if Hash(nil) != Hash([]models.Note{}) {
		t.Error("nil and empty should hash equally")
	}
	if s := FormatHash(1); s != "0000000000000001" {
		t.Errorf("FormatHash(1) = %q", s)
	}
}

func TestCache_EntryForCarriesHash(t *testing.T) {
	c, _, rec := newCache(t)
	notes := fixture()

	e := c.EntryFor(DefaultKey, notes)
	if e.Hash != Hash(notes) || e.Graph == nil {
		t.Fatalf("entry = %+v", e)
	}
	again := c.EntryFor(DefaultKey, notes)
	if again.Graph != e.Graph || again.Hash != e.Hash || !again.CreatedAt.Equal(e.CreatedAt) {
		t.Error("second call should return the stored entry")
	}
	if c.Graph(notes) != e.Graph {
		t.Error("Graph and EntryFor should share the default slot")
	}
	if rec.rebuilds.Load() != 1 {
		t.Errorf("rebuilds = %d, want 1", rec.rebuilds.Load())
	}
}
