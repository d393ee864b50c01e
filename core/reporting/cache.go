package reporting

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "unigate",
		Subsystem: "reports",
		Name:      "cache_hits_total",
		Help:      "Report cache hits.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "unigate",
		Subsystem: "reports",
		Name:      "cache_misses_total",
		Help:      "Report cache misses.",
	})
)

// Cache fronts report assembly for the dashboard endpoints. Entries are
// keyed per tenant and view and expire after the TTL; a cached report may be
// at most TTL stale, which the dashboards tolerate.
type Cache struct {
	lru *expirable.LRU[string, interface{}]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 128
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{lru: expirable.NewLRU[string, interface{}](size, nil, ttl)}
}

func cacheKey(tenant, view string) string { return tenant + "|" + view }

func (c *Cache) get(tenant, view string) (interface{}, bool) {
	val, ok := c.lru.Get(cacheKey(tenant, view))
	if ok {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}
	return val, ok
}

func (c *Cache) set(tenant, view string, val interface{}) {
	c.lru.Add(cacheKey(tenant, view), val)
}

// Invalidate drops every cached view for the tenant.
func (c *Cache) Invalidate(tenant string) {
	prefix := tenant + "|"
	for _, key := range c.lru.Keys() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.lru.Remove(key)
		}
	}
}
