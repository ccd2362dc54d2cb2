package openmeteo

import (
	"context"
	"sync"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
)

// Source reads daily weather for an inclusive date range.
type Source interface {
	DailyWeather(ctx context.Context, start, end string) (domain.WeatherSeries, error)
}

// CachedSource wraps a Source with an in-memory LRU cache keyed by location
// and date range.
type CachedSource struct {
	inner    Source
	location string
	cache    *lruCache
	metrics  *observability.Metrics
}

// NewCachedSource creates a cache decorator around a weather source.
func NewCachedSource(inner Source, location Location, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:    inner,
		location: location.Key(),
		cache:    newLRUCache(maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedSource) DailyWeather(ctx context.Context, start, end string) (domain.WeatherSeries, error) {
	key := c.location + "|" + start + "|" + end
	if series, ok := c.cache.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	series, err := c.inner.DailyWeather(ctx, start, end)
	if err != nil {
		return series, err
	}
	// Only cache non-empty results so an empty range can be fetched again later.
	if series.Len() > 0 {
		c.cache.put(key, series)
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache for weather series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.WeatherSeries
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.WeatherSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WeatherSeries{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.WeatherSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
