package tangency

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chazu/weldbead/pkg/graph"
	"github.com/chazu/weldbead/pkg/logging"
	"github.com/chazu/weldbead/pkg/shape"
)

// DefaultCacheSize is the number of shapes whose tangency graphs are kept.
const DefaultCacheSize = 64

type cacheEntry struct {
	id      shape.ID
	graph   *graph.Undirected
	element *list.Element
}

// CacheStats reports tangency cache usage.
type CacheStats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Propagator expands seeds through smooth joints and memoises the tangency
// graph of each shape revision in an LRU cache. A shape never changes under
// one ID, so a cached graph stays valid until the ID is invalidated or
// evicted. Safe for concurrent use.
type Propagator struct {
	mu      sync.RWMutex
	entries map[shape.ID]*cacheEntry
	lru     *list.List // front = most recent
	maxSize int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewPropagator returns a propagator caching up to size shapes; size <= 0
// means DefaultCacheSize.
func NewPropagator(size int) *Propagator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Propagator{
		entries: make(map[shape.ID]*cacheEntry),
		lru:     list.New(),
		maxSize: size,
	}
}

// Expand returns the edge indices of s reachable from seed within
// maxDistance smooth joints, sorted ascending. The seed is always included.
// A negative maxDistance means unbounded.
func (p *Propagator) Expand(s *shape.Shape, seed int, maxDistance float64) ([]int, error) {
	if s.IsNull() {
		return nil, fmt.Errorf("tangency: cannot expand over null shape")
	}
	if seed < 0 || seed >= len(s.Edges) {
		return nil, fmt.Errorf("tangency: seed edge %d out of range for %s", seed, s)
	}
	out, err := p.adjacency(s).Reachable(seed, maxDistance)
	if err != nil {
		return nil, fmt.Errorf("tangency: %w", err)
	}
	logging.Logger().Debug("tangency expansion", "shape", s.Name, "seed", seed, "edges", len(out))
	return out, nil
}

func (p *Propagator) adjacency(s *shape.Shape) *graph.Undirected {
	if g, ok := p.get(s.ID); ok {
		return g
	}
	// Built outside the lock. A concurrent build of the same shape yields
	// an identical graph; the later put replaces the earlier one.
	g := BuildAdjacency(s.Edges)
	p.put(s.ID, g)
	return g
}

func (p *Propagator) get(id shape.ID) (*graph.Undirected, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		p.misses.Add(1)
		return nil, false
	}
	p.lru.MoveToFront(e.element)
	p.hits.Add(1)
	return e.graph, true
}

func (p *Propagator) put(id shape.ID, g *graph.Undirected) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[id]; ok {
		e.graph = g
		p.lru.MoveToFront(e.element)
		return
	}
	e := &cacheEntry{id: id, graph: g}
	e.element = p.lru.PushFront(e)
	p.entries[id] = e
	for p.lru.Len() > p.maxSize {
		oldest := p.lru.Back()
		p.lru.Remove(oldest)
		delete(p.entries, oldest.Value.(*cacheEntry).id)
		p.evictions.Add(1)
	}
}

// Invalidate drops the cached graph of id.
func (p *Propagator) Invalidate(id shape.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[id]; ok {
		p.lru.Remove(e.element)
		delete(p.entries, id)
	}
}

// Purge drops every cached graph.
func (p *Propagator) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lru.Init()
	clear(p.entries)
}

// Len returns the number of cached shapes.
func (p *Propagator) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lru.Len()
}

// Stats returns cache statistics.
func (p *Propagator) Stats() CacheStats {
	return CacheStats{
		Entries:   p.Len(),
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Evictions: p.evictions.Load(),
	}
}
