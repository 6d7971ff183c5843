package xredis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/puzpuzpuz/xsync"
)

type memoryItem struct {
	value    string
	expireAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expireAt.IsZero() && !now.Before(i.expireAt)
}

// memoryClient is an in-process Client used when no redis address is configured. Expired keys
// are dropped lazily on read.
type memoryClient struct {
	items *xsync.MapOf[string, memoryItem]
	now   func() time.Time
}

func NewMemoryClient() *memoryClient {
	return &memoryClient{
		items: xsync.NewMapOf[memoryItem](),
		now:   time.Now,
	}
}

func (c *memoryClient) load(key string) (memoryItem, bool) {
	item, ok := c.items.Load(key)
	if !ok {
		return memoryItem{}, false
	}

	if item.expired(c.now()) {
		c.items.Delete(key)
		return memoryItem{}, false
	}

	return item, true
}

func (c *memoryClient) Exist(ctx context.Context, key string) (bool, error) {
	_, ok := c.load(key)
	return ok, nil
}

func (c *memoryClient) Del(ctx context.Context, key ...string) error {
	for _, k := range key {
		c.items.Delete(k)
	}

	return nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expireAt = c.now().Add(ttl)
	}

	c.items.Store(key, item)
	return nil
}

func (c *memoryClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, string(b), ttl)
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	item, ok := c.load(key)
	if !ok {
		return "", Nil
	}

	return item.value, nil
}

func (c *memoryClient) GetObj(ctx context.Context, key string, v any) error {
	s, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}
