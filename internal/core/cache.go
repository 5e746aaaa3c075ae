package core

import (
	"sync"
	"time"
)

// Cached entities. A write to an entity invalidates every cached read of it.
const (
	entityStudents    = "students"
	entityDuty        = "duty"
	entityReports     = "reports"
	entityPermissions = "permissions"
	entityUsers       = "users"
)

type cacheItem struct {
	value   any
	expires time.Time
}

// entityCache memoises list reads per entity. Keys are entity plus a
// caller-chosen suffix (usually the encoded filter).
type entityCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]map[string]cacheItem
}

func newEntityCache(ttl time.Duration, now func() time.Time) *entityCache {
	return &entityCache{
		ttl:   ttl,
		now:   now,
		items: make(map[string]map[string]cacheItem),
	}
}

func (c *entityCache) get(entity, key string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[entity][key]
	if !ok || c.now().After(item.expires) {
		return nil, false
	}
	return item.value, true
}

func (c *entityCache) put(entity, key string, v any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.items[entity]
	if !ok {
		m = make(map[string]cacheItem)
		c.items[entity] = m
	}
	m[key] = cacheItem{value: v, expires: c.now().Add(c.ttl)}
}

// invalidate drops every cached read of the given entities.
func (c *entityCache) invalidate(entities ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entities {
		delete(c.items, e)
	}
}

// cached serves a read through the cache. Values are returned as stored;
// callers must not mutate slices they get back.
func cached[T any](c *entityCache, entity, key string, load func() (T, error)) (T, error) {
	if v, ok := c.get(entity, key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.put(entity, key, v)
	return v, nil
}
