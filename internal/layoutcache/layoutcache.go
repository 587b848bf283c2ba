// Package layoutcache memoizes graph construction and layout for a note
// collection.
//
// A cached graph is reused while the collection's content hash is unchanged
// and the entry is younger than the TTL. The hash only covers note ids and
// update times, so two distinct but equal collections share an entry.
package layoutcache

import (
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/layout"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/ttlcache"
)

// Defaults.
const (
	DefaultTTL      = 10 * time.Second
	DefaultCapacity = 16
)

// DefaultKey is the slot used by Graph.
const DefaultKey = ""

// Entry is one cached build.
type Entry struct {
	Hash      uint64
	Graph     *graph.Graph
	CreatedAt time.Time
}

// Recorder receives cache events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CacheHit(key string)
	CacheMiss(key string)
	Rebuilt(key string, nodes int, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string) {}
func (nopRecorder) CacheMiss(string) {}
func (nopRecorder) Rebuilt(string, int, time.Duration) {}

type options struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Cache.
type Option func(*options)

// WithTTL sets how long an entry stays valid. Non-positive values are
// ignored.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithCapacity sets the number of keyed slots kept at once.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRecorder reports hits, misses and rebuilds to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger used for rebuild and invalidation events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Cache is safe for concurrent use. Concurrent misses for the same key and
// content hash share a single rebuild.
type Cache struct {
	cfg    layout.Config
	slots  *ttlcache.Cache[string, Entry]
	flight singleflight.Group
	now    func() time.Time
	rec    Recorder
	logger *slog.Logger
}

// New returns an empty cache that lays graphs out with cfg.
func New(cfg layout.Config, opts ...Option) *Cache {
	o := options{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		cfg:    cfg,
		slots:  ttlcache.New[string, Entry](o.capacity, o.ttl, ttlcache.WithClock(o.now)),
		now:    o.now,
		rec:    o.recorder,
		logger: o.logger,
	}
}

// Graph returns the positioned graph for notes from the default slot.
func (c *Cache) Graph(notes []models.Note) *graph.Graph {
	return c.GraphFor(DefaultKey, notes)
}

// GraphFor returns the positioned graph for notes from the slot named key,
// building and storing it when the slot is empty, stale or holds another
// collection. The returned graph must not be modified.
func (c *Cache) GraphFor(key string, notes []models.Note) *graph.Graph {
	return c.EntryFor(key, notes).Graph
}

// EntryFor is GraphFor returning the whole entry, so callers get the content
// hash without hashing notes again.
func (c *Cache) EntryFor(key string, notes []models.Note) Entry {
	h := Hash(notes)
	if e, ok := c.lookup(key, h); ok {
		c.rec.CacheHit(key)
		return e
	}
	c.rec.CacheMiss(key)

	v, _, _ := c.flight.Do(key+"\x00"+FormatHash(h), func() (any, error) {
		if e, ok := c.lookup(key, h); ok {
			return e, nil
		}
		start := c.now()
		g := layout.Layout(graph.Build(notes), c.cfg)
		took := c.now().Sub(start)
		e := Entry{Hash: h, Graph: g, CreatedAt: c.now()}
		c.slots.Set(key, e)
		c.rec.Rebuilt(key, len(g.Nodes), took)
		c.logger.Debug("layout cache rebuilt",
			"key", key,
			"hash", FormatHash(h),
			"nodes", len(g.Nodes),
			"edges", len(g.Edges),
			"took", took,
		)
		return e, nil
	})
	return v.(Entry)
}

// Entry returns the live entry stored under key.
func (c *Cache) Entry(key string) (Entry, bool) {
	return c.slots.Get(key)
}

func (c *Cache) lookup(key string, h uint64) (Entry, bool) {
	e, ok := c.slots.Get(key)
	if !ok || e.Hash != h {
		return Entry{}, false
	}
	return e, true
}

// Invalidate drops every slot; the next request rebuilds.
func (c *Cache) Invalidate() {
	c.slots.Clear()
	c.logger.Debug("layout cache invalidated")
}
