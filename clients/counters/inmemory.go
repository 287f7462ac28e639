package counters

import (
	"context"
	"sync"
	"time"
)

// InMemoryCounters keeps counters in process memory,
// used when no redis endpoint is configured
type InMemoryCounters struct {
	data  map[string]counterItem
	mutex sync.RWMutex
}

var _ Counters = (*InMemoryCounters)(nil)

type counterItem struct {
	value      int64
	expiration time.Time
}

func NewInMemoryCounters() *InMemoryCounters {
	return &InMemoryCounters{
		data: make(map[string]counterItem),
	}
}

func (c *InMemoryCounters) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	item, ok := c.data[key]
	if !ok || now.After(item.expiration) {
		item = counterItem{}
	}

	item.value++
	item.expiration = now.Add(window)
	c.data[key] = item

	return item.value, nil
}

func (c *InMemoryCounters) Get(ctx context.Context, key string) (int64, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, ok := c.data[key]
	if !ok || time.Now().After(item.expiration) {
		return 0, nil
	}

	return item.value, nil
}

func (c *InMemoryCounters) Healthcheck(ctx context.Context) error {
	return nil
}
