package server

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-inventory/pkg/inventory"
	"github.com/redis/go-redis/v9"
)

// Cache is a thin redis wrapper used to short-circuit the unfiltered list
// response. It is optional, the server works with a nil cache.
type Cache struct {
	Addr     string
	Password string
	DB       int
	client   *redis.Client
	ctx      context.Context
}

func NewCache(addr, password string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{Addr: addr, Password: password, DB: db, client: rdb, ctx: context.Background()}
}

func (c *Cache) Get(key string, out any) error {
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		return err
	}
	return sonic.Unmarshal([]byte(data), out)
}

func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, expiration).Err()
}

func (c *Cache) Invalidate(key string) error {
	return c.client.Del(c.ctx, key).Err()
}

func (c *Cache) Close() {
	c.client.Close()
}

// ListCacheInvalidator drops the cached list response whenever the store
// changes, no matter where the change came from.
type ListCacheInvalidator struct {
	Cache *Cache
}

func (i *ListCacheInvalidator) invalidate() {
	if err := i.Cache.Invalidate(listCacheKey); err != nil {
		log.Printf("Failed to invalidate list cache: %v", err)
	}
}

func (i *ListCacheInvalidator) ItemsUpserted(items []inventory.Item) {
	i.invalidate()
}

func (i *ListCacheInvalidator) ItemDeleted(id int) {
	i.invalidate()
}
